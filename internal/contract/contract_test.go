package contract_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/USA-RedDragon/contract-relay/internal/contract"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

const (
	storeSelector    = "6057361d"
	retrieveSelector = "2e64cec1"
)

func TestEncodeStore(t *testing.T) {
	t.Parallel()

	data, err := contract.EncodeStore(big.NewInt(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := storeSelector + "000000000000000000000000000000000000000000000000000000000000002a"
	if got := hex.EncodeToString(data); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if _, err := contract.EncodeStore(big.NewInt(-1)); !errors.Is(err, contract.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	if _, err := contract.EncodeStore(tooBig); !errors.Is(err, contract.ErrValueTooLarge) {
		t.Errorf("expected ErrValueTooLarge, got %v", err)
	}
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"0":       "0",
		"42":      "42",
		"42.0":    "42",
		"1e3":     "1000",
		"1E+2":    "100",
		"1500e-3": "1",
		"115792089237316195423570985008687907853269984665640564039457584007913129639935": "115792089237316195423570985008687907853269984665640564039457584007913129639935",
	}
	for in, want := range valid {
		in, want := in, want
		t.Run("valid/"+in, func(t *testing.T) {
			t.Parallel()
			got, err := contract.ParseValue(json.Number(in))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		})
	}

	invalid := []string{"", "-1", "1.5", "-1e3", "1e-3", "0x10", "1/2", "abc"}
	for _, in := range invalid {
		in := in
		t.Run("invalid/"+in, func(t *testing.T) {
			t.Parallel()
			if _, err := contract.ParseValue(json.Number(in)); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}

	overflows := []json.Number{
		"115792089237316195423570985008687907853269984665640564039457584007913129639936",
		"1e78",
		"1e1000000000",
	}
	for _, overflow := range overflows {
		if _, err := contract.ParseValue(overflow); !errors.Is(err, contract.ErrValueTooLarge) {
			t.Errorf("expected ErrValueTooLarge for %s, got %v", overflow, err)
		}
	}
}

func TestCAIP2(t *testing.T) {
	t.Parallel()
	if got := contract.CAIP2(84532); got != "eip155:84532" {
		t.Errorf("unexpected CAIP-2 id: %s", got)
	}
}

func TestExplorerTxURL(t *testing.T) {
	t.Parallel()
	if got := contract.ExplorerTxURL("https://sepolia.basescan.org/", "0xabc"); got != "https://sepolia.basescan.org/tx/0xabc" {
		t.Errorf("unexpected explorer URL: %s", got)
	}
}

type fakeCaller struct {
	calls  []ethereum.CallMsg
	result []byte
	err    error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.result, f.err
}

func TestRetrieve(t *testing.T) {
	t.Parallel()

	address := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	caller := &fakeCaller{result: common.LeftPadBytes(big.NewInt(1337).Bytes(), 32)}
	reader := contract.NewReader(caller, address)

	value, err := reader.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value.Int64() != 1337 {
		t.Errorf("expected 1337, got %s", value)
	}
	if len(caller.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(caller.calls))
	}
	if *caller.calls[0].To != address {
		t.Errorf("unexpected call target: %s", caller.calls[0].To)
	}
	if got := hex.EncodeToString(caller.calls[0].Data); got != retrieveSelector {
		t.Errorf("unexpected call data: %s", got)
	}
}

func TestRetrieveError(t *testing.T) {
	t.Parallel()

	rpcErr := errors.New("connection refused")
	reader := contract.NewReader(&fakeCaller{err: rpcErr}, common.Address{})
	if _, err := reader.Retrieve(context.Background()); !errors.Is(err, rpcErr) {
		t.Errorf("expected wrapped RPC error, got %v", err)
	}

	reader = contract.NewReader(&fakeCaller{result: []byte{0x01}}, common.Address{})
	if _, err := reader.Retrieve(context.Background()); err == nil {
		t.Error("expected decode error, got nil")
	}
}
