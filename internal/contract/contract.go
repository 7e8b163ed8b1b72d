// Package contract talks to the storage contract: ABI encoding of store(uint256)
// for the write path and eth_call of retrieve() for the read path.
package contract

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-errors/errors"
)

const (
	MethodRetrieve = "retrieve"
	MethodStore    = "store"

	// Largest exponent accepted in a value like 1e3
	maxExponent = 1024
)

const storageABI = `[
	{
		"inputs": [],
		"name": "retrieve",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "num", "type": "uint256"}],
		"name": "store",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	ErrInvalidValue  = errors.New("value is not an unsigned integer")
	ErrValueTooLarge = errors.New("value does not fit in uint256")

	//nolint:golint,gochecknoglobals
	maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

//nolint:golint,gochecknoglobals
var ABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(storageABI))
	if err != nil {
		panic(fmt.Sprintf("invalid storage ABI: %v", err))
	}
	return parsed
}

// ParseValue converts a JSON number into the uint256 argument of store.
// Integral values written with a fraction or exponent, like 42.0 or 1e3, are accepted.
func ParseValue(n json.Number) (*big.Int, error) {
	s := n.String()
	if s == "" || strings.Trim(s, "0123456789.eE+-") != "" {
		return nil, ErrInvalidValue
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil {
			return nil, ErrInvalidValue
		}
		if exp > maxExponent {
			return nil, ErrValueTooLarge
		}
		if exp < -maxExponent {
			return nil, ErrInvalidValue
		}
	}
	rat, ok := new(big.Rat).SetString(s)
	if !ok || !rat.IsInt() || rat.Sign() < 0 {
		return nil, ErrInvalidValue
	}
	value := new(big.Int).Set(rat.Num())
	if value.Cmp(maxUint256) > 0 {
		return nil, ErrValueTooLarge
	}
	return value, nil
}

// EncodeStore returns the call data for store(value).
func EncodeStore(value *big.Int) ([]byte, error) {
	if value == nil || value.Sign() < 0 {
		return nil, ErrInvalidValue
	}
	if value.Cmp(maxUint256) > 0 {
		return nil, ErrValueTooLarge
	}
	data, err := ABI.Pack(MethodStore, value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", MethodStore, err)
	}
	return data, nil
}

// CAIP2 formats an EVM chain ID as a CAIP-2 identifier.
func CAIP2(chainID uint64) string {
	return fmt.Sprintf("eip155:%d", chainID)
}

// ExplorerTxURL links a transaction hash on the block explorer.
func ExplorerTxURL(explorerURL, hash string) string {
	return strings.TrimSuffix(explorerURL, "/") + "/tx/" + hash
}

// ParseAddress is common.HexToAddress with validation.
func ParseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address %q", address)
	}
	return common.HexToAddress(address), nil
}
