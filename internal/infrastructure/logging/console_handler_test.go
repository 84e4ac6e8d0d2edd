package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betonops/reconcile-backend/internal/infrastructure/config"
)

func TestConsoleHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, nil)
	logger := slog.New(handler).With("system", "api")

	logger.Info("transaction imported", "id", "txn-1", "count", 3)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "[api]")
	assert.Contains(t, out, "transaction imported")
	assert.Contains(t, out, "id=txn-1")
	assert.Contains(t, out, "count=3")
	// system attr is rendered as a bracket prefix, not a key=value pair
	assert.NotContains(t, out, "system=api")
	// buffer is not a terminal, so no ANSI escapes
	assert.NotContains(t, out, "\033[")
}

func TestConsoleHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := NewConsoleHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	logger := slog.New(handler)

	require.False(t, handler.Enabled(context.Background(), slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Error("database unreachable")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "database unreachable")
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"text", "json", "console"} {
		t.Run(format, func(t *testing.T) {
			logger := NewLogger(config.LoggingConfig{Level: "info", Format: format})
			assert.NotNil(t, logger)
		})
	}
}
