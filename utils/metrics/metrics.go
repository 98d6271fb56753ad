package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// ScannerMetrics tracks polling cycles and route evaluations
type ScannerMetrics struct {
	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
	RouteAttempts *prometheus.CounterVec
	QuoteFailures *prometheus.CounterVec
	RowsWritten   prometheus.Counter
	BestBps       prometheus.Gauge
	BatchSize     prometheus.Gauge
	GasPrice      prometheus.Gauge
}

func NewScannerMetrics(reg prometheus.Registerer, namespace string) *ScannerMetrics {
	factory := promauto.With(reg)
	return &ScannerMetrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed polling cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one full cycle across all sizes and routes",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		RouteAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_attempts_total",
			Help:      "Route evaluations by route type and result",
		}, []string{"route", "result"}),
		QuoteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_failures_total",
			Help:      "Failed quote legs by protocol",
		}, []string{"protocol"}),
		RowsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows appended to the result sink",
		}),
		BestBps: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_return_bps",
			Help:      "Highest return in basis points among the successful results of the last cycle",
		}),
		BatchSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Successful outcomes in the last cycle",
		}),
		GasPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gas_price_wei",
			Help:      "Gas price snapshot used by the cost model",
		}),
	}
}
