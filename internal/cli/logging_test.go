package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LogLevel(0, false))
	assert.Equal(t, slog.LevelDebug, LogLevel(2, false))
	assert.Equal(t, slog.LevelWarn, LogLevel(0, true))
	assert.Equal(t, slog.LevelWarn, LogLevel(1, true))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, slog.LevelInfo, true)

	logger.Debug("hidden")
	logger.Info("execute", "sql", "SELECT 1", "params", map[string]any{})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "execute")
	assert.Contains(t, out, "SELECT 1")
	assert.NotContains(t, out, "params")
	assert.NotContains(t, out, "\x1b[", "no colour codes when disabled")
}
