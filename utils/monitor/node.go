package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// StallSamples is the number of consecutive samples without a new block
// after which the node is reported as stalled
const StallSamples = 3

// HeadSource reports the latest block number known to the node
type HeadSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// NodeStatus is a point-in-time view of the node's health
type NodeStatus struct {
	HeadBlock   uint64    `json:"headBlock"`
	LastAdvance time.Time `json:"lastAdvance"`
	Errors      uint64    `json:"errors"`
	Stalled     bool      `json:"stalled"`
}

// NodeMonitor samples the node's head block in the background so operators
// can tell stale quotes from a quiet market
type NodeMonitor struct {
	ctx      context.Context
	cancel   context.CancelFunc
	source   HeadSource
	interval time.Duration
	logger   *zap.Logger
	metrics  struct {
		headBlock prometheus.Gauge
		errors    prometheus.Counter
		stalled   prometheus.Gauge
	}

	mu      sync.RWMutex
	status  NodeStatus
	unmoved int
	wg      sync.WaitGroup
}

// NewNodeMonitor starts sampling every interval until ctx is cancelled or
// Cleanup is called
func NewNodeMonitor(ctx context.Context, source HeadSource, interval time.Duration, reg prometheus.Registerer, namespace string, logger *zap.Logger) *NodeMonitor {
	m := newNodeMonitor(ctx, source, interval, reg, namespace, logger)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.monitor()
	}()

	return m
}

func newNodeMonitor(ctx context.Context, source HeadSource, interval time.Duration, reg prometheus.Registerer, namespace string, logger *zap.Logger) *NodeMonitor {
	ctx, cancel := context.WithCancel(ctx)
	m := &NodeMonitor{
		ctx:      ctx,
		cancel:   cancel,
		source:   source,
		interval: interval,
		logger:   logger,
	}

	factory := promauto.With(reg)
	m.metrics.headBlock = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "node_head_block",
		Help:      "Latest block number reported by the node",
	})
	m.metrics.errors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "node_errors_total",
		Help:      "Failed head block requests",
	})
	m.metrics.stalled = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "node_stalled",
		Help:      "1 when the head block has not advanced for several samples",
	})

	return m
}

func (m *NodeMonitor) monitor() {
	m.sample()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *NodeMonitor) sample() {
	head, err := m.source.BlockNumber(m.ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.status.Errors++
		m.metrics.errors.Inc()
		m.logger.Warn("Failed to read head block", zap.Error(err))
		return
	}

	if head > m.status.HeadBlock {
		if m.status.Stalled {
			m.logger.Info("Node head advancing again", zap.Uint64("block", head))
		}
		m.status.HeadBlock = head
		m.status.LastAdvance = time.Now()
		m.status.Stalled = false
		m.unmoved = 0
		m.metrics.headBlock.Set(float64(head))
		m.metrics.stalled.Set(0)
		return
	}

	m.unmoved++
	if m.unmoved >= StallSamples && !m.status.Stalled {
		m.status.Stalled = true
		m.metrics.stalled.Set(1)
		m.logger.Warn("Node head has not advanced, quotes may be stale",
			zap.Uint64("block", m.status.HeadBlock),
			zap.Time("lastAdvance", m.status.LastAdvance))
	}
}

// Status returns the latest sampled state
func (m *NodeMonitor) Status() NodeStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Cleanup stops sampling and waits for the background goroutine
func (m *NodeMonitor) Cleanup() {
	m.cancel()
	m.wg.Wait()
}
