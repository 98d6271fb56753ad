package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedHeads struct {
	mu    sync.Mutex
	heads []uint64
	errs  []error
	calls int
}

func (s *scriptedHeads) BlockNumber(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return 0, s.errs[i]
	}
	if i >= len(s.heads) {
		return s.heads[len(s.heads)-1], nil
	}
	return s.heads[i], nil
}

func (s *scriptedHeads) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNodeMonitorTracksHead(t *testing.T) {
	src := &scriptedHeads{heads: []uint64{100, 101, 103}}
	m := newNodeMonitor(context.Background(), src, time.Hour, prometheus.NewRegistry(), "test", zaptest.NewLogger(t))
	defer m.Cleanup()

	for i := 0; i < 3; i++ {
		m.sample()
	}

	status := m.Status()
	assert.Equal(t, uint64(103), status.HeadBlock)
	assert.False(t, status.Stalled)
	assert.False(t, status.LastAdvance.IsZero())
	assert.Equal(t, float64(103), testutil.ToFloat64(m.metrics.headBlock))
}

func TestNodeMonitorDetectsStall(t *testing.T) {
	src := &scriptedHeads{heads: []uint64{100, 100, 100, 100, 101}}
	m := newNodeMonitor(context.Background(), src, time.Hour, prometheus.NewRegistry(), "test", zaptest.NewLogger(t))
	defer m.Cleanup()

	for i := 0; i < StallSamples; i++ {
		m.sample()
	}
	assert.False(t, m.Status().Stalled)

	m.sample()
	assert.True(t, m.Status().Stalled)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.metrics.stalled))

	m.sample()
	assert.False(t, m.Status().Stalled)
	assert.Equal(t, uint64(101), m.Status().HeadBlock)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.metrics.stalled))
}

func TestNodeMonitorCountsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	src := &scriptedHeads{heads: []uint64{0, 0, 7}, errs: []error{boom, boom}}
	m := newNodeMonitor(context.Background(), src, time.Hour, prometheus.NewRegistry(), "test", zaptest.NewLogger(t))
	defer m.Cleanup()

	for i := 0; i < 3; i++ {
		m.sample()
	}

	status := m.Status()
	assert.Equal(t, uint64(2), status.Errors)
	assert.Equal(t, uint64(7), status.HeadBlock)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.metrics.errors))
}

func TestNewNodeMonitorSamplesInBackground(t *testing.T) {
	src := &scriptedHeads{heads: []uint64{42}}
	m := NewNodeMonitor(context.Background(), src, 10*time.Millisecond, prometheus.NewRegistry(), "test", zaptest.NewLogger(t))

	require.Eventually(t, func() bool { return src.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	m.Cleanup()

	assert.Equal(t, uint64(42), m.Status().HeadBlock)
	calls := src.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.count())
}
