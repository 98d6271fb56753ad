package dex

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// ContractCaller is the read-only half of a bound contract
type ContractCaller interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
}

// PathQuoter prices a multi-hop swap on a constant-product router
type PathQuoter interface {
	// QuotePath returns the final output for amountIn routed along path
	QuotePath(ctx context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error)
}

// ConcentratedQuoter prices a single-pool swap on a concentrated-liquidity quoter
type ConcentratedQuoter interface {
	QuoteSingle(ctx context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error)
}

// StableQuoter prices a swap between two coins of a stable-swap pool
type StableQuoter interface {
	QuoteStable(ctx context.Context, from, to common.Address, amountIn *big.Int) (*big.Int, error)
}

// Quoters bundles one quoter per protocol
type Quoters struct {
	Path         PathQuoter
	Concentrated ConcentratedQuoter
	Stable       StableQuoter
}
