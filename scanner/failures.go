package scanner

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/types"
)

// DefaultFailureCacheSize bounds how many distinct failure signatures are remembered
const DefaultFailureCacheSize = 1024

// FailureIndexer counts failure signatures. Route failures are only recorded
// in their persisted row, so they are logged at debug and never reach the console.
type FailureIndexer struct {
	logger *zap.Logger
	cache  *lru.Cache
	mu     sync.Mutex
}

func NewFailureIndexer(size int, logger *zap.Logger) (*FailureIndexer, error) {
	if size <= 0 {
		size = DefaultFailureCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &FailureIndexer{
		logger: logger,
		cache:  cache,
	}, nil
}

// Signature hashes route, size and message into a cache key
func Signature(route types.RouteType, size string, err error) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(route))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(size)
	_, _ = d.WriteString("\x00")
	if err != nil {
		_, _ = d.WriteString(err.Error())
	}
	return d.Sum64()
}

// Record logs a failed outcome at debug and reports whether its signature is new
func (f *FailureIndexer) Record(outcome types.Outcome, size string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := Signature(outcome.RouteType, size, outcome.Err)
	fields := []zap.Field{
		zap.String("route", string(outcome.RouteType)),
		zap.String("size", size),
		zap.Int("leg", outcome.FailedLeg+1),
		zap.Error(outcome.Err),
	}

	if v, ok := f.cache.Get(key); ok {
		count := v.(int) + 1
		f.cache.Add(key, count)
		f.logger.Debug("Route failed again", append(fields, zap.Int("occurrences", count))...)
		return false
	}

	f.cache.Add(key, 1)
	f.logger.Debug("Route failed", fields...)
	return true
}

// Occurrences returns how often a signature has been recorded
func (f *FailureIndexer) Occurrences(route types.RouteType, size string, err error) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.cache.Peek(Signature(route, size, err)); ok {
		return v.(int)
	}
	return 0
}
