package main

import (
	"flag"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagemath/pkg/config"
)

func testFlagSet(t *testing.T, args ...string) *flag.FlagSet {
	t.Helper()
	fs := flag.NewFlagSet("imagemath", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("op", "", "")
	fs.Int("s2", -1, "")
	fs.Int("cores", 0, "")
	fs.Float64("sentinel", 0, "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Processing.NumCores = 3

	applyOverrides(cfg, testFlagSet(t, "-op", "divide", "-s2", "4", "-sentinel", "-1", "-cores", "0"))

	assert.Equal(t, "divide", cfg.Parameters.Operation)
	assert.Equal(t, 4, cfg.Parameters.Series2Index)
	assert.Equal(t, -1.0, cfg.Processing.GuardSentinel)
	assert.Equal(t, 3, cfg.Processing.NumCores, "-cores 0 keeps the configured value")
	assert.NoError(t, cfg.Validate())

	applyOverrides(cfg, testFlagSet(t, "-cores", "6"))
	assert.Equal(t, 6, cfg.Processing.NumCores)
}

func TestNewLoggerAppliesLogLevelFlag(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "warn"

	logger, err := newLogger(io.Discard, cfg, testFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, logger.Level())

	logger, err = newLogger(io.Discard, cfg, testFlagSet(t, "-log-level", "debug"))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, logger.Level())

	_, err = newLogger(io.Discard, cfg, testFlagSet(t, "-log-level", "loud"))
	assert.Error(t, err)
}
