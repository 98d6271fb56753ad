// Package scanner runs the polling cycle: every route at every trade size is
// quoted, scored and persisted, then the successes are ranked and reported.
package scanner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/reporter"
	"github.com/michaelpento.lv/arbscan/store"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
	"github.com/michaelpento.lv/arbscan/types"
	"github.com/michaelpento.lv/arbscan/utils/metrics"
)

// RouteEvaluator quotes one route at one input amount
type RouteEvaluator interface {
	Evaluate(ctx context.Context, route types.Route, amountIn *big.Int) types.Outcome
}

// GasEstimator prices a route's gas in the base token
type GasEstimator interface {
	EstimateGasCost(rt types.RouteType) *big.Int
}

// FeeEstimator prices the flash loan for an input amount
type FeeEstimator interface {
	Fee(amount *big.Int) *big.Int
}

// Params wires a Scanner
type Params struct {
	Evaluator RouteEvaluator
	Gas       GasEstimator
	Fees      FeeEstimator
	Sink      store.Sink
	Reporter  *reporter.Reporter
	Metrics   *metrics.ScannerMetrics
	Failures  *FailureIndexer

	Routes []types.Route
	Sizes  []config.TradeSize

	PollInterval time.Duration
	// MaxCycles stops Run after that many cycles; zero runs until cancelled
	MaxCycles int
}

// Scanner owns the poll loop
type Scanner struct {
	params Params
	logger *zap.Logger
	now    func() time.Time
}

// New creates a scanner
func New(params Params, logger *zap.Logger) (*Scanner, error) {
	if params.Evaluator == nil || params.Gas == nil || params.Fees == nil || params.Sink == nil {
		return nil, fmt.Errorf("scanner requires an evaluator, cost models and a sink")
	}
	if len(params.Routes) == 0 || len(params.Sizes) == 0 {
		return nil, fmt.Errorf("scanner requires at least one route and one trade size")
	}
	if params.Failures == nil {
		failures, err := NewFailureIndexer(DefaultFailureCacheSize, logger)
		if err != nil {
			return nil, err
		}
		params.Failures = failures
	}

	return &Scanner{
		params: params,
		logger: logger,
		now:    time.Now,
	}, nil
}

// RunCycle evaluates every route at every size. Each attempt is persisted
// before the next one starts; successes are returned as the cycle's batch.
// A quote failure is recorded in its row, a sink failure aborts the cycle.
func (s *Scanner) RunCycle(ctx context.Context) ([]types.ScoredResult, error) {
	start := time.Now()
	var batch []types.ScoredResult
	attempts := 0

	for _, size := range s.params.Sizes {
		flashFee := s.params.Fees.Fee(size.Amount)

		for _, route := range s.params.Routes {
			outcome := s.params.Evaluator.Evaluate(ctx, route, size.Amount)
			attempts++

			scored := arbitrage.Score(outcome, s.params.Gas.EstimateGasCost(route.Type), flashFee)
			scored.TradeSize = size.Label
			scored.Timestamp = s.now().UTC()

			if err := s.params.Sink.WriteRow(ctx, store.NewRow(scored)); err != nil {
				return batch, fmt.Errorf("failed to persist %s at size %s: %w", route.Type, size.Label, err)
			}
			s.observeAttempt(scored)

			if outcome.Success {
				batch = append(batch, scored)
				continue
			}
			s.params.Failures.Record(outcome, size.Label)
		}
	}

	if s.params.Reporter != nil {
		s.params.Reporter.Report(batch, attempts)
	}
	s.observeCycle(batch, time.Since(start))

	s.logger.Info("Cycle complete",
		zap.Int("attempts", attempts),
		zap.Int("successes", len(batch)),
		zap.Duration("elapsed", time.Since(start)))

	return batch, nil
}

// Run repeats RunCycle, sleeping PollInterval between cycles. Cycles never
// overlap and cancellation is only observed between them.
func (s *Scanner) Run(ctx context.Context) error {
	cycleCtx := context.WithoutCancel(ctx)

	for cycle := 1; ; cycle++ {
		if _, err := s.RunCycle(cycleCtx); err != nil {
			return fmt.Errorf("cycle %d: %w", cycle, err)
		}

		if s.params.MaxCycles > 0 && cycle >= s.params.MaxCycles {
			return nil
		}

		timer := time.NewTimer(s.params.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Scanner stopped", zap.Int("cycles", cycle))
			return nil
		case <-timer.C:
		}
	}
}

func (s *Scanner) observeAttempt(r types.ScoredResult) {
	m := s.params.Metrics
	if m == nil {
		return
	}

	m.RowsWritten.Inc()
	if r.Success {
		m.RouteAttempts.WithLabelValues(string(r.RouteType), "success").Inc()
		return
	}
	m.RouteAttempts.WithLabelValues(string(r.RouteType), "failure").Inc()
	m.QuoteFailures.WithLabelValues(failedProtocol(s.params.Routes, r.Outcome)).Inc()
}

func (s *Scanner) observeCycle(batch []types.ScoredResult, elapsed time.Duration) {
	m := s.params.Metrics
	if m == nil {
		return
	}

	m.Cycles.Inc()
	m.CycleDuration.Observe(elapsed.Seconds())
	m.BatchSize.Set(float64(len(batch)))

	if best := bestBps(batch); best != nil {
		bps, _ := new(big.Float).SetInt(best).Float64()
		m.BestBps.Set(bps)
	}
}

// bestBps returns the highest return in bps across batch, or nil when no
// result carries one. Ranking is by raw profit, so this can differ from the top row.
func bestBps(batch []types.ScoredResult) *big.Int {
	var best *big.Int
	for _, r := range batch {
		if !r.Success || r.Bps == nil {
			continue
		}
		if best == nil || r.Bps.Cmp(best) > 0 {
			best = r.Bps
		}
	}
	return best
}

func failedProtocol(routes []types.Route, o types.Outcome) string {
	for _, r := range routes {
		if r.Type == o.RouteType && o.FailedLeg >= 0 && o.FailedLeg < len(r.Legs) {
			return string(r.Legs[o.FailedLeg].Protocol)
		}
	}
	return "unknown"
}
