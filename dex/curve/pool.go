package curve

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

const poolABIJson = `[{
	"name": "get_dy",
	"inputs": [
		{"name": "i", "type": "int128"},
		{"name": "j", "type": "int128"},
		{"name": "dx", "type": "uint256"}
	],
	"outputs": [{"name": "", "type": "uint256"}],
	"stateMutability": "view",
	"type": "function"
}]`

const methodGetDy = "get_dy"

// StablePool quotes swaps between coins of a stable-swap pool
type StablePool struct {
	address common.Address
	caller  *dex.Caller
	indices map[common.Address]int64
}

// NewStablePool binds the pool at address. indices maps each token to its coin index.
func NewStablePool(client *ethclient.Client, address common.Address, indices map[common.Address]int64, limiter *rate.Limiter) (*StablePool, error) {
	contract, err := dex.BindContract(address, poolABIJson, client)
	if err != nil {
		return nil, fmt.Errorf("failed to bind stable pool: %w", err)
	}
	return NewStablePoolWithCaller(address, contract, indices, limiter), nil
}

// NewStablePoolWithCaller builds the adapter around an existing contract caller
func NewStablePoolWithCaller(address common.Address, contract dex.ContractCaller, indices map[common.Address]int64, limiter *rate.Limiter) *StablePool {
	copied := make(map[common.Address]int64, len(indices))
	for k, v := range indices {
		copied[k] = v
	}
	return &StablePool{
		address: address,
		caller:  dex.NewCaller(contract, limiter),
		indices: copied,
	}
}

// Address returns the pool contract address
func (p *StablePool) Address() common.Address {
	return p.address
}

// QuoteStable returns get_dy(i, j, amountIn) for the coin indices of from and to
func (p *StablePool) QuoteStable(ctx context.Context, from, to common.Address, amountIn *big.Int) (*big.Int, error) {
	i, ok := p.indices[from]
	if !ok {
		return nil, dex.NewQuoteError(string(types.ProtocolStableSwap), methodGetDy,
			fmt.Errorf("token %s is not a coin of pool %s", from.Hex(), p.address.Hex()))
	}
	j, ok := p.indices[to]
	if !ok {
		return nil, dex.NewQuoteError(string(types.ProtocolStableSwap), methodGetDy,
			fmt.Errorf("token %s is not a coin of pool %s", to.Hex(), p.address.Hex()))
	}

	out, err := p.caller.Call(ctx, methodGetDy, big.NewInt(i), big.NewInt(j), amountIn)
	if err != nil {
		return nil, dex.NewQuoteError(string(types.ProtocolStableSwap), methodGetDy, err)
	}

	amount, err := dex.FirstAmount(out)
	if err != nil {
		return nil, dex.NewQuoteError(string(types.ProtocolStableSwap), methodGetDy, err)
	}
	return amount, nil
}
