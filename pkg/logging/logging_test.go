package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warn", "error"} {
		l, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, LevelString(l))
	}
	l, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "unknown", LevelString(slog.Level(3)))
}

func TestSetLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, logger.SetLevel("debug"))
	assert.Equal(t, slog.LevelDebug, logger.Level())
	logger.Debug("shown", "frame", 3)
	assert.Contains(t, buf.String(), "shown")

	assert.Error(t, logger.SetLevel("loud"))
	assert.Equal(t, slog.LevelDebug, logger.Level())
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "nonsense", "15:04")
	assert.Equal(t, slog.LevelInfo, logger.Level())
}
