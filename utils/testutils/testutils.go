package testutils

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/types"
)

// Tokens used across package tests
var (
	WETH = types.Token{Symbol: "WETH", Address: common.HexToAddress("0x00000000000000000000000000000000000000e1"), Decimals: 18}
	USDC = types.Token{Symbol: "USDC", Address: common.HexToAddress("0x00000000000000000000000000000000000000c1"), Decimals: 6}
	USDT = types.Token{Symbol: "USDT", Address: common.HexToAddress("0x00000000000000000000000000000000000000c2"), Decimals: 6}
	DAI  = types.Token{Symbol: "DAI", Address: common.HexToAddress("0x00000000000000000000000000000000000000d1"), Decimals: 18}
)

// ErrReverted mimics an execution revert from the node
var ErrReverted = errors.New("execution reverted")

// ContractCall is one recorded invocation of a FakeContract
type ContractCall struct {
	Opts   *bind.CallOpts
	Method string
	Params []interface{}
}

// FakeContract answers Call from canned per-method results
type FakeContract struct {
	mu      sync.Mutex
	Results map[string][]interface{}
	Errors  map[string]error
	Calls   []ContractCall
}

// NewFakeContract creates an empty fake
func NewFakeContract() *FakeContract {
	return &FakeContract{
		Results: make(map[string][]interface{}),
		Errors:  make(map[string]error),
	}
}

func (f *FakeContract) Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, ContractCall{Opts: opts, Method: method, Params: params})
	if err := f.Errors[method]; err != nil {
		return err
	}
	res, ok := f.Results[method]
	if !ok {
		return errors.New("no result configured for " + method)
	}
	*results = res
	return nil
}

// Methods returns the called method names in order
func (f *FakeContract) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.Method
	}
	return out
}

// Wei is shorthand for big.NewInt
func Wei(v int64) *big.Int {
	return big.NewInt(v)
}

// FakeQuoter implements the path, concentrated and stable quoter interfaces.
// A nil function quotes 1:1.
type FakeQuoter struct {
	mu       sync.Mutex
	PathFn   func(amountIn *big.Int, path []common.Address) (*big.Int, error)
	SingleFn func(tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error)
	StableFn func(from, to common.Address, amountIn *big.Int) (*big.Int, error)
	Calls    []string
}

func (f *FakeQuoter) record(kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, kind)
}

// CallCount returns how many quotes were requested
func (f *FakeQuoter) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

func (f *FakeQuoter) QuotePath(_ context.Context, amountIn *big.Int, path []common.Address) (*big.Int, error) {
	f.record("v2")
	if f.PathFn == nil {
		return new(big.Int).Set(amountIn), nil
	}
	return f.PathFn(amountIn, path)
}

func (f *FakeQuoter) QuoteSingle(_ context.Context, tokenIn, tokenOut common.Address, fee uint32, amountIn *big.Int) (*big.Int, error) {
	f.record("v3")
	if f.SingleFn == nil {
		return new(big.Int).Set(amountIn), nil
	}
	return f.SingleFn(tokenIn, tokenOut, fee, amountIn)
}

func (f *FakeQuoter) QuoteStable(_ context.Context, from, to common.Address, amountIn *big.Int) (*big.Int, error) {
	f.record("stable")
	if f.StableFn == nil {
		return new(big.Int).Set(amountIn), nil
	}
	return f.StableFn(from, to, amountIn)
}

// TokenSet returns WETH as base, USDC and USDT as the stable pair and DAI as the legacy stable
func TokenSet() config.TokenSet {
	return config.TokenSet{Base: WETH, Stable1: USDC, Stable2: USDT, StableLegacy: DAI}
}
