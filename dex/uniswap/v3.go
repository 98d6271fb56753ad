package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/types"
)

// QuoterV2 ABI, trimmed to the two exact-input quotes
const quoterABIJson = `[{
	"inputs": [{
		"components": [
			{"internalType": "address", "name": "tokenIn", "type": "address"},
			{"internalType": "address", "name": "tokenOut", "type": "address"},
			{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
			{"internalType": "uint24", "name": "fee", "type": "uint24"},
			{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
		],
		"internalType": "struct IQuoterV2.QuoteExactInputSingleParams",
		"name": "params",
		"type": "tuple"
	}],
	"name": "quoteExactInputSingle",
	"outputs": [
		{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
		{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
		{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
		{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
	],
	"stateMutability": "nonpayable",
	"type": "function"
}, {
	"inputs": [
		{"internalType": "bytes", "name": "path", "type": "bytes"},
		{"internalType": "uint256", "name": "amountIn", "type": "uint256"}
	],
	"name": "quoteExactInput",
	"outputs": [
		{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
		{"internalType": "uint160[]", "name": "sqrtPriceX96AfterList", "type": "uint160[]"},
		{"internalType": "uint32[]", "name": "initializedTicksCrossedList", "type": "uint32[]"},
		{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
	],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

const (
	methodExactInputSingle = "quoteExactInputSingle"
	methodExactInput       = "quoteExactInput"
)

// MaxFeeTier is the largest value a uint24 fee can hold
const MaxFeeTier = 1<<24 - 1

// ExactInputSingleParams mirrors the quoter's tuple argument
type ExactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// V3Quoter quotes single-pool swaps on a concentrated-liquidity quoter.
// The quoter functions are non-view and revert internally, so they are
// only ever invoked as calls.
type V3Quoter struct {
	address common.Address
	caller  *dex.Caller
}

// NewV3Quoter binds the quoter at address
func NewV3Quoter(client *ethclient.Client, address common.Address, limiter *rate.Limiter) (*V3Quoter, error) {
	contract, err := dex.BindContract(address, quoterABIJson, client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind v3 quoter: %w", err)
	}
	return NewV3QuoterWithCaller(address, contract, limiter), nil
}

// NewV3QuoterWithCaller builds the adapter around an existing contract caller
func NewV3QuoterWithCaller(address common.Address, contract dex.ContractCaller, limiter *rate.Limiter) *V3Quoter {
	return &V3Quoter{
		address: address,
		caller:  dex.NewCaller(contract, limiter),
	}
}

// QuoteSingle tries quoteExactInputSingle and falls back to quoteExactInput
// with a one-pool encoded path. When both fail the error carries both causes.
func (q *V3Quoter) QuoteSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	if fee > MaxFeeTier {
		return nil, dex.NewQuoteError(string(types.ProtocolConcentrated), methodExactInputSingle,
			fmt.Errorf("fee tier %d overflows uint24", fee))
	}

	amount, primaryErr := q.quoteExactInputSingle(ctx, tokenIn, tokenOut, fee, amountIn)
	if primaryErr == nil {
		return amount, nil
	}

	amount, fallbackErr := q.quoteExactInput(ctx, EncodePath(tokenIn, fee, tokenOut), amountIn)
	if fallbackErr == nil {
		return amount, nil
	}

	return nil, dex.NewQuoteError(string(types.ProtocolConcentrated), methodExactInput,
		fmt.Errorf("%s: %v; %s: %w", methodExactInputSingle, primaryErr, methodExactInput, fallbackErr))
}

func (q *V3Quoter) quoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	params := ExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(fee)),
		SqrtPriceLimitX96: new(big.Int),
	}

	out, err := q.caller.Call(ctx, methodExactInputSingle, params)
	if err != nil {
		return nil, err
	}
	return dex.FirstAmount(out)
}

func (q *V3Quoter) quoteExactInput(ctx context.Context, path []byte, amountIn *big.Int) (*big.Int, error) {
	out, err := q.caller.Call(ctx, methodExactInput, path, amountIn)
	if err != nil {
		return nil, err
	}
	return dex.FirstAmount(out)
}

// EncodePath packs tokenIn ‖ fee (uint24, big-endian) ‖ tokenOut
func EncodePath(tokenIn common.Address, fee uint32, tokenOut common.Address) []byte {
	path := make([]byte, 0, common.AddressLength*2+3)
	path = append(path, tokenIn.Bytes()...)
	path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
	path = append(path, tokenOut.Bytes()...)
	return path
}
