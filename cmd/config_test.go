package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, resolveLogLevel(true), "verbose wins over configuration")

	t.Setenv("RATCHET_LOG_LEVEL", "warn")
	assert.Equal(t, slog.LevelWarn, resolveLogLevel(false))

	t.Setenv("RATCHET_LOG_LEVEL", "-4")
	assert.Equal(t, slog.LevelDebug, resolveLogLevel(false), "numeric slog levels are accepted")

	t.Setenv("RATCHET_LOG_LEVEL", "nonsense")
	assert.Equal(t, slog.LevelInfo, resolveLogLevel(false))
}
