package reporter

import (
	"bytes"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/michaelpento.lv/arbscan/types"
)

func result(route types.RouteType, size string, raw int64) types.ScoredResult {
	in := big.NewInt(1_000_000_000_000_000_000)
	profit := big.NewInt(raw)
	return types.ScoredResult{
		Outcome: types.Outcome{
			RouteType: route,
			AmountIn:  in,
			AmountOut: new(big.Int).Add(in, profit),
			Success:   true,
			FailedLeg: -1,
		},
		TradeSize: size,
		RawProfit: profit,
		Bps:       big.NewInt(raw / 100_000_000_000_000),
		GasCost:   big.NewInt(0),
		FlashFee:  big.NewInt(0),
		NetProfit: profit,
	}
}

func TestRankOrdersByRawProfit(t *testing.T) {
	batch := []types.ScoredResult{
		result(types.RouteCrossVersionForward, "1", 10),
		result(types.RouteCrossVersionReverse, "1", -5),
		result(types.RouteTriangleSingleDEX, "1", 30),
		result(types.RouteTriangleStableHopA, "1", 10),
		result(types.RouteTriangleStableHopB, "1", 20),
	}

	ranked := Rank(batch, 10)
	require.Len(t, ranked, 5)

	got := make([]types.RouteType, len(ranked))
	for i, r := range ranked {
		got[i] = r.RouteType
	}
	assert.Equal(t, []types.RouteType{
		types.RouteTriangleSingleDEX,
		types.RouteTriangleStableHopB,
		types.RouteCrossVersionForward, // ties keep batch order
		types.RouteTriangleStableHopA,
		types.RouteCrossVersionReverse,
	}, got)

	// input untouched
	assert.Equal(t, types.RouteCrossVersionForward, batch[0].RouteType)
}

func TestRankCapsAtN(t *testing.T) {
	var batch []types.ScoredResult
	for i := 0; i < 25; i++ {
		batch = append(batch, result(types.RouteTriangleSingleDEX, fmt.Sprint(i), int64(i)))
	}

	ranked := Rank(batch, MaxTopN)
	require.Len(t, ranked, MaxTopN)
	assert.Equal(t, "24", ranked[0].TradeSize)
	assert.Equal(t, "15", ranked[9].TradeSize)

	assert.Empty(t, Rank(nil, MaxTopN))
}

func TestReportEmptyBatch(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 10, "WETH", 18, zaptest.NewLogger(t))

	snap := r.Report(nil, 10)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, 10, snap.Attempts)
	assert.Contains(t, buf.String(), NoQuotesMessage)
}

func TestReportRendersTruncatedDecimals(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 3, "WETH", 18, zaptest.NewLogger(t))

	res := result(types.RouteCrossVersionForward, "1", 123_456_789_999_999_999)
	res.GasCost = big.NewInt(4_999_999_999_999)
	snap := r.Report([]types.ScoredResult{res}, 5)

	require.Len(t, snap.Entries, 1)
	e := snap.Entries[0]
	assert.Equal(t, 1, e.Rank)
	assert.Equal(t, "0.12345678", e.Profit)
	assert.Equal(t, "0.00000499", e.GasCost)
	assert.Equal(t, "0.00000000", e.FlashFee)
	assert.Equal(t, "1234", e.Bps)

	out := buf.String()
	assert.Contains(t, out, "CrossVersion-forward")
	assert.Contains(t, out, "0.12345678")
	assert.NotContains(t, out, NoQuotesMessage)
}

func TestReporterClampsTopN(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 50, "WETH", 18, zaptest.NewLogger(t))

	var batch []types.ScoredResult
	for i := 0; i < 15; i++ {
		batch = append(batch, result(types.RouteTriangleSingleDEX, fmt.Sprint(i), int64(i+1)))
	}
	snap := r.Report(batch, 15)
	assert.Len(t, snap.Entries, MaxTopN)
	assert.Equal(t, 15, snap.Successes)
}

func TestLatestIsACopy(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, 10, "WETH", 18, zaptest.NewLogger(t))
	assert.Equal(t, uint64(0), r.Latest().Cycle)

	r.Report([]types.ScoredResult{result(types.RouteTriangleSingleDEX, "1", 1)}, 5)
	latest := r.Latest()
	require.Len(t, latest.Entries, 1)
	latest.Entries[0].Route = "changed"

	assert.Equal(t, "Triangle-singleDEX", r.Latest().Entries[0].Route)
	assert.Equal(t, uint64(1), r.Latest().Cycle)
}
