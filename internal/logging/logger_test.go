package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/catapult/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewLoggerDebug(t *testing.T) {
	t.Setenv("CATAPULT_LOG_LEVEL", "")

	logger := NewLogger(&config.RuntimeConfig{Debug: true})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = NewLogger(&config.RuntimeConfig{})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/orchestrator.go", shortPath("/home/dev/catapult/internal/usecase/orchestrator.go"))
	assert.Equal(t, "main.go", shortPath("/tmp/build/main.go"))
}
