package dex

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// NewLimiter builds the shared RPC limiter. A non-positive rate disables throttling.
func NewLimiter(requestsPerSecond float64, burst int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// BindContract parses abiJSON and binds it read-only at address
func BindContract(address common.Address, abiJSON string, backend bind.ContractBackend) (*bind.BoundContract, error) {
	parsedABI, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	return bind.NewBoundContract(address, parsedABI, backend, backend, backend), nil
}

// Caller issues throttled calls against pending state
type Caller struct {
	contract ContractCaller
	limiter  *rate.Limiter
}

// NewCaller wraps contract; limiter may be nil
func NewCaller(contract ContractCaller, limiter *rate.Limiter) *Caller {
	return &Caller{contract: contract, limiter: limiter}
}

// Call waits for the limiter, then invokes method and returns its unpacked outputs
func (c *Caller) Call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var out []interface{}
	opts := &bind.CallOpts{Pending: true, Context: ctx}
	if err := c.contract.Call(opts, &out, method, params...); err != nil {
		return nil, err
	}
	return out, nil
}

// FirstAmount normalises the first output of a call into a *big.Int
func FirstAmount(out []interface{}) (*big.Int, error) {
	if len(out) == 0 {
		return nil, fmt.Errorf("empty result")
	}
	return ToAmount(out[0])
}

// ToAmount accepts a bare integer, a positional tuple or a struct carrying an
// AmountOut field and returns its amount. The result never aliases the input.
func ToAmount(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case nil:
		return nil, fmt.Errorf("nil result")
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil result")
		}
		return new(big.Int).Set(x), nil
	case []interface{}:
		return FirstAmount(x)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil result")
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f := rv.FieldByName("AmountOut"); f.IsValid() && f.CanInterface() {
			return ToAmount(f.Interface())
		}
		if rv.NumField() > 0 && rv.Field(0).CanInterface() {
			return ToAmount(rv.Field(0).Interface())
		}
	case reflect.Slice, reflect.Array:
		if rv.Len() > 0 {
			return ToAmount(rv.Index(0).Interface())
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}

	return nil, fmt.Errorf("unexpected result type %T", v)
}
