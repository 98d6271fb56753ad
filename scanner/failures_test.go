package scanner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/michaelpento.lv/arbscan/types"
)

func TestFailureIndexerLogsAtDebugOnly(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	indexer, err := NewFailureIndexer(16, zap.New(core))
	require.NoError(t, err)

	outcome := types.Outcome{
		RouteType: types.RouteTriangleStableHopA,
		Err:       errors.New("leg 2: execution reverted"),
		FailedLeg: 1,
	}

	assert.True(t, indexer.Record(outcome, "1"))
	assert.False(t, indexer.Record(outcome, "1"))
	assert.False(t, indexer.Record(outcome, "1"))
	assert.Equal(t, 3, indexer.Occurrences(outcome.RouteType, "1", outcome.Err))

	// a different size is a different signature
	assert.True(t, indexer.Record(outcome, "2"))

	assert.Equal(t, 4, logs.FilterLevelExact(zapcore.DebugLevel).Len())
	assert.Equal(t, 2, logs.FilterMessage("Route failed").Len())
	assert.Equal(t, 2, logs.FilterMessage("Route failed again").Len())
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestSignature(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t,
		Signature(types.RouteTriangleSingleDEX, "1", err),
		Signature(types.RouteTriangleSingleDEX, "1", errors.New("boom")))
	assert.NotEqual(t,
		Signature(types.RouteTriangleSingleDEX, "1", err),
		Signature(types.RouteTriangleSingleDEX, "1", errors.New("bang")))
	assert.NotEqual(t,
		Signature(types.RouteTriangleSingleDEX, "1", nil),
		Signature(types.RouteTriangleSingleDEX, "11", nil))
}
