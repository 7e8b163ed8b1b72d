package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Reader struct {
	caller  ethereum.ContractCaller
	address common.Address
}

func NewReader(caller ethereum.ContractCaller, address common.Address) *Reader {
	return &Reader{
		caller:  caller,
		address: address,
	}
}

// Dial connects to the chain's JSON-RPC endpoint. The caller owns the client.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return client, nil
}

// Retrieve reads the stored value at the latest block.
func (r *Reader) Retrieve(ctx context.Context) (*big.Int, error) {
	data, err := ABI.Pack(MethodRetrieve)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", MethodRetrieve, err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &r.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", MethodRetrieve, err)
	}

	results, err := ABI.Unpack(MethodRetrieve, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", MethodRetrieve, err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("unexpected %s result count: %d", MethodRetrieve, len(results))
	}
	value, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s result type: %T", MethodRetrieve, results[0])
	}
	return value, nil
}
