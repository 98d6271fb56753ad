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

// Router ABI, trimmed to the quote function
const routerABIJson = `[{
	"inputs": [
		{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
		{"internalType": "address[]", "name": "path", "type": "address[]"}
	],
	"name": "getAmountsOut",
	"outputs": [{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}],
	"stateMutability": "view",
	"type": "function"
}]`

const methodGetAmountsOut = "getAmountsOut"

// Path length limits accepted by the router adapter
const (
	MinPathLength = 2
	MaxPathLength = 4
)

// V2Router quotes multi-hop swaps through a constant-product router
type V2Router struct {
	address common.Address
	caller  *dex.Caller
}

// NewV2Router binds the router at address
func NewV2Router(client *ethclient.Client, address common.Address, limiter *rate.Limiter) (*V2Router, error) {
	contract, err := dex.BindContract(address, routerABIJson, client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind v2 router: %w", err)
	}
	return NewV2RouterWithCaller(address, contract, limiter), nil
}

// NewV2RouterWithCaller builds the adapter around an existing contract caller
func NewV2RouterWithCaller(address common.Address, contract dex.ContractCaller, limiter *rate.Limiter) *V2Router {
	return &V2Router{
		address: address,
		caller:  dex.NewCaller(contract, limiter),
	}
}

// GetRouterAddress returns the router contract address
func (r *V2Router) GetRouterAddress() common.Address {
	return r.address
}

// QuotePath returns the last element of getAmountsOut(amountIn, path)
func (r *V2Router) QuotePath(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	if len(path) < MinPathLength || len(path) > MaxPathLength {
		return nil, dex.NewQuoteError(string(types.ProtocolConstantProduct), methodGetAmountsOut,
			fmt.Errorf("invalid path length %d", len(path)))
	}

	out, err := r.caller.Call(ctx, methodGetAmountsOut, amountIn, path)
	if err != nil {
		return nil, dex.NewQuoteError(string(types.ProtocolConstantProduct), methodGetAmountsOut, err)
	}

	amount, err := lastAmount(out, len(path))
	if err != nil {
		return nil, dex.NewQuoteError(string(types.ProtocolConstantProduct), methodGetAmountsOut, err)
	}
	return amount, nil
}

func lastAmount(out []interface{}, pathLen int) (*big.Int, error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %T", out[0])
	}
	if len(amounts) != pathLen {
		return nil, fmt.Errorf("got %d amounts for a path of %d tokens", len(amounts), pathLen)
	}
	last := amounts[len(amounts)-1]
	if last == nil {
		return nil, fmt.Errorf("nil amount")
	}
	return new(big.Int).Set(last), nil
}
