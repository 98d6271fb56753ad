package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelpento.lv/arbscan/utils/testutils"
)

func TestCallerUsesPendingState(t *testing.T) {
	contract := testutils.NewFakeContract()
	contract.Results["balanceOf"] = []interface{}{big.NewInt(7)}

	out, err := NewCaller(contract, NewLimiter(100, 1)).Call(context.Background(), "balanceOf", "x")
	require.NoError(t, err)
	assert.Len(t, out, 1)

	require.Len(t, contract.Calls, 1)
	assert.True(t, contract.Calls[0].Opts.Pending)
	assert.Equal(t, []interface{}{"x"}, contract.Calls[0].Params)
}

func TestCallerLimiterHonoursContext(t *testing.T) {
	contract := testutils.NewFakeContract()
	contract.Results["m"] = []interface{}{big.NewInt(1)}
	caller := NewCaller(contract, NewLimiter(0.001, 1))

	_, err := caller.Call(context.Background(), "m")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = caller.Call(ctx, "m")
	assert.Error(t, err)
	assert.Len(t, contract.Calls, 1)
}

func TestNewLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 10))
	assert.NotNil(t, NewLimiter(5, 0))
}

func TestToAmount(t *testing.T) {
	named := struct {
		AmountOut         *big.Int
		SqrtPriceX96After *big.Int
		InitializedTicks  uint32
		GasEstimate       *big.Int
	}{AmountOut: big.NewInt(42), SqrtPriceX96After: big.NewInt(1)}

	positional := struct {
		Field0 *big.Int
		Field1 *big.Int
	}{big.NewInt(9), big.NewInt(3)}

	tests := []struct {
		name    string
		input   interface{}
		want    int64
		wantErr bool
	}{
		{"bare integer", big.NewInt(5), 5, false},
		{"tuple", []interface{}{big.NewInt(6), big.NewInt(1)}, 6, false},
		{"named struct", named, 42, false},
		{"named struct pointer", &named, 42, false},
		{"positional struct", positional, 9, false},
		{"big int slice", []*big.Int{big.NewInt(11), big.NewInt(2)}, 11, false},
		{"nil", nil, 0, true},
		{"nil big int", (*big.Int)(nil), 0, true},
		{"empty tuple", []interface{}{}, 0, true},
		{"string", "100", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestToAmountDoesNotAlias(t *testing.T) {
	src := big.NewInt(10)
	got, err := ToAmount(src)
	require.NoError(t, err)
	got.SetInt64(99)
	assert.Equal(t, int64(10), src.Int64())
}

func TestQuoteErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("leg 2: %w", NewQuoteError("v2", "getAmountsOut", testutils.ErrReverted))

	assert.True(t, errors.Is(err, ErrQuoteFailed))
	assert.True(t, errors.Is(err, testutils.ErrReverted))
	assert.Contains(t, err.Error(), "v2 getAmountsOut: execution reverted")

	var qe *QuoteError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, "getAmountsOut", qe.Method)

	assert.NoError(t, NewQuoteError("v2", "m", nil))
}
