package scanner

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/dex"
	"github.com/michaelpento.lv/arbscan/reporter"
	"github.com/michaelpento.lv/arbscan/store"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
	"github.com/michaelpento.lv/arbscan/utils/testutils"
)

type memorySink struct {
	mu   sync.Mutex
	rows []store.Row
	err  error
}

func (m *memorySink) WriteRow(_ context.Context, row store.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

func (m *memorySink) Close() error { return nil }

func (m *memorySink) Rows() []store.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]store.Row(nil), m.rows...)
}

type fixedGas int64

func (g fixedGas) EstimateGasCost(types.RouteType) *big.Int { return big.NewInt(int64(g)) }

type fixedFee int64

func (f fixedFee) Fee(*big.Int) *big.Int { return big.NewInt(int64(f)) }

var testSizes = []config.TradeSize{
	{Label: "1000", Amount: big.NewInt(1000)},
	{Label: "2000", Amount: big.NewInt(2000)},
}

type harness struct {
	scanner *Scanner
	sink    *memorySink
	out     *bytes.Buffer
	quoter  *testutils.FakeQuoter
	metrics *metrics.ScannerMetrics
}

func newHarness(t *testing.T, q *testutils.FakeQuoter, mutate func(*Params)) *harness {
	return newHarnessWithLogger(t, q, zaptest.NewLogger(t), mutate)
}

func newHarnessWithLogger(t *testing.T, q *testutils.FakeQuoter, logger *zap.Logger, mutate func(*Params)) *harness {
	sink := &memorySink{}
	out := &bytes.Buffer{}
	m := metrics.NewScannerMetrics(prometheus.NewRegistry(), "test")

	params := Params{
		Evaluator:    arbitrage.NewDetector(dex.Quoters{Path: q, Concentrated: q, Stable: q}, logger),
		Gas:          fixedGas(5),
		Fees:         fixedFee(1),
		Sink:         sink,
		Reporter:     reporter.NewReporter(out, 10, "WETH", 18, logger),
		Metrics:      m,
		Routes:       arbitrage.DefineRoutes(testutils.TokenSet(), 500),
		Sizes:        testSizes,
		PollInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&params)
	}

	s, err := New(params, logger)
	require.NoError(t, err)
	return &harness{scanner: s, sink: sink, out: out, quoter: q, metrics: m}
}

func TestRunCycleWritesOneRowPerAttempt(t *testing.T) {
	h := newHarness(t, &testutils.FakeQuoter{}, nil)

	batch, err := h.scanner.RunCycle(context.Background())
	require.NoError(t, err)

	rows := h.sink.Rows()
	assert.Len(t, rows, len(testSizes)*5)
	assert.Len(t, batch, len(testSizes)*5)

	// sizes outer, routes inner
	assert.Equal(t, "1000", rows[0].TradeSize)
	assert.Equal(t, "CrossVersion-forward", rows[0].Route)
	assert.Equal(t, "2000", rows[5].TradeSize)
	for _, row := range rows {
		assert.Empty(t, row.Note)
		assert.Equal(t, "0", row.RawProfit)
		assert.Equal(t, "-6", row.NetProfit)
	}

	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Cycles))
	assert.Equal(t, float64(10), testutil.ToFloat64(h.metrics.RowsWritten))
	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.RouteAttempts.WithLabelValues("Triangle-singleDEX", "success")))
}

func TestRunCycleScoresCrossVersionScenario(t *testing.T) {
	q := &testutils.FakeQuoter{
		PathFn: func(amountIn *big.Int, path []common.Address) (*big.Int, error) {
			if len(path) == 2 && path[0] == testutils.WETH.Address && path[1] == testutils.USDC.Address {
				return big.NewInt(1050), nil
			}
			return new(big.Int).Set(amountIn), nil
		},
		StableFn: func(common.Address, common.Address, *big.Int) (*big.Int, error) {
			return big.NewInt(900), nil
		},
		SingleFn: func(tokenIn, _ common.Address, _ uint32, amountIn *big.Int) (*big.Int, error) {
			if tokenIn == testutils.USDC.Address {
				return big.NewInt(1040), nil
			}
			return new(big.Int).Set(amountIn), nil
		},
	}
	h := newHarness(t, q, func(p *Params) { p.Sizes = testSizes[:1] })

	batch, err := h.scanner.RunCycle(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, batch)

	forward := h.sink.Rows()[0]
	assert.Equal(t, "CrossVersion-forward", forward.Route)
	assert.Equal(t, "1000", forward.Input)
	assert.Equal(t, "1040", forward.Output)
	assert.Equal(t, "40", forward.RawProfit)
	assert.Equal(t, "400", forward.Bps)
	assert.Equal(t, "5", forward.GasCost)
	assert.Equal(t, "1", forward.FlashFee)
	assert.Equal(t, "34", forward.NetProfit)

	ranked := reporter.Rank(batch, 1)
	assert.Equal(t, types.RouteCrossVersionForward, ranked[0].RouteType)
	assert.Equal(t, float64(400), testutil.ToFloat64(h.metrics.BestBps))
}

func TestBestBpsGaugeTakesHighestReturn(t *testing.T) {
	// size 1000 earns 40 (400 bps), size 2000 earns more in absolute terms
	// but less per unit: 60 (300 bps)
	q := &testutils.FakeQuoter{
		SingleFn: func(tokenIn, _ common.Address, _ uint32, amountIn *big.Int) (*big.Int, error) {
			if tokenIn != testutils.USDC.Address {
				return new(big.Int).Set(amountIn), nil
			}
			switch amountIn.Int64() {
			case 1000:
				return big.NewInt(1040), nil
			case 2000:
				return big.NewInt(2060), nil
			}
			return new(big.Int).Set(amountIn), nil
		},
	}
	h := newHarness(t, q, nil)

	batch, err := h.scanner.RunCycle(context.Background())
	require.NoError(t, err)

	top := reporter.Rank(batch, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "2000", top[0].TradeSize)
	assert.Equal(t, big.NewInt(300), top[0].Bps)
	assert.Equal(t, float64(400), testutil.ToFloat64(h.metrics.BestBps))
}

func TestBestBpsAllLosing(t *testing.T) {
	batch := []types.ScoredResult{
		{Outcome: types.Outcome{Success: true}, Bps: big.NewInt(-30)},
		{Outcome: types.Outcome{Success: true}, Bps: big.NewInt(-12)},
		{Outcome: types.Outcome{Success: false}},
	}
	assert.Equal(t, big.NewInt(-12), bestBps(batch))
	assert.Nil(t, bestBps(nil))
}

func TestRunCycleAllRoutesFail(t *testing.T) {
	fail := func() error { return dex.NewQuoteError("v2", "getAmountsOut", testutils.ErrReverted) }
	q := &testutils.FakeQuoter{
		PathFn: func(*big.Int, []common.Address) (*big.Int, error) { return nil, fail() },
		SingleFn: func(common.Address, common.Address, uint32, *big.Int) (*big.Int, error) {
			return nil, fail()
		},
	}
	h := newHarness(t, q, nil)

	batch, err := h.scanner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)

	rows := h.sink.Rows()
	assert.Len(t, rows, len(testSizes)*5)
	for _, row := range rows {
		assert.NotEmpty(t, row.Note)
		assert.Empty(t, row.Output)
		assert.Empty(t, row.NetProfit)
		assert.Equal(t, "5", row.GasCost)
	}
	assert.Contains(t, h.out.String(), reporter.NoQuotesMessage)
	assert.Equal(t, float64(2), testutil.ToFloat64(h.metrics.QuoteFailures.WithLabelValues("v3")))
}

func TestRunCycleRouteFailuresStayOffConsole(t *testing.T) {
	q := &testutils.FakeQuoter{
		StableFn: func(common.Address, common.Address, *big.Int) (*big.Int, error) {
			return nil, dex.NewQuoteError("stable", "get_dy", testutils.ErrReverted)
		},
	}
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHarnessWithLogger(t, q, zap.New(core), nil)

	for i := 0; i < 2; i++ {
		_, err := h.scanner.RunCycle(context.Background())
		require.NoError(t, err)
	}

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	// two stable-hop routes at two sizes, two cycles
	assert.Equal(t, 8, logs.FilterLevelExact(zapcore.DebugLevel).FilterMessageSnippet("Route failed").Len())

	for _, row := range h.sink.Rows() {
		if row.Route == "Triangle-stableHop-A" || row.Route == "Triangle-stableHop-B" {
			assert.Contains(t, row.Note, "execution reverted")
		}
	}
}

func TestRunCycleSinkErrorIsFatal(t *testing.T) {
	h := newHarness(t, &testutils.FakeQuoter{}, nil)
	h.sink.err = errors.New("disk full")

	_, err := h.scanner.RunCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// two legs of the first route, nothing after the failed write
	assert.Equal(t, 2, h.quoter.CallCount())
	assert.Empty(t, h.sink.Rows())
}

func TestRunStopsAfterMaxCycles(t *testing.T) {
	h := newHarness(t, &testutils.FakeQuoter{}, func(p *Params) { p.MaxCycles = 1 })

	require.NoError(t, h.scanner.Run(context.Background()))
	assert.Len(t, h.sink.Rows(), len(testSizes)*5)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Cycles))

	h = newHarness(t, &testutils.FakeQuoter{}, func(p *Params) { p.MaxCycles = 3 })
	require.NoError(t, h.scanner.Run(context.Background()))
	assert.Len(t, h.sink.Rows(), 3*len(testSizes)*5)
}

func TestRunFinishesCycleBeforeCancelling(t *testing.T) {
	h := newHarness(t, &testutils.FakeQuoter{}, func(p *Params) { p.PollInterval = time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.scanner.Run(ctx))
	assert.Len(t, h.sink.Rows(), len(testSizes)*5)
}

func TestRunReturnsSinkError(t *testing.T) {
	h := newHarness(t, &testutils.FakeQuoter{}, nil)
	h.sink.err = errors.New("read-only file system")

	err := h.scanner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle 1")
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Params{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
