package monitoring

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	logger := NewLogger()
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
	assert.False(t, logger.Enabled(ctx, slog.LevelDebug))
}

func TestSetLevel(t *testing.T) {
	logger := NewLogger()
	ctx := context.Background()

	logger.SetLevel(slog.LevelDebug)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger.SetLevel(slog.LevelError)
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestContextualLoggers(t *testing.T) {
	logger := NewLogger()
	logger.SetLevel(slog.LevelDebug)

	// These write structured records to stdout; the test verifies they
	// handle their inputs without panicking.
	assert.NotPanics(t, func() {
		logger.MatchScanLogger("profile-1234", 120, 10, 42*time.Millisecond)
	})
	assert.NotPanics(t, func() {
		logger.CacheLogger("get", "abcdef0123456789", true, 3)
	})
	assert.NotPanics(t, func() {
		logger.CacheLogger("get", "short", false, 0)
	})
}
