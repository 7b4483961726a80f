// Package logging sets up the colourised slog logger used by imagemath.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// Logger is a slog.Logger whose level can be changed after creation.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a Logger writing to w. An unknown level falls back to info.
func New(w io.Writer, level, timeFormat string) *Logger {
	lv := new(slog.LevelVar)
	if l, err := ParseLevel(level); err == nil {
		lv.Set(l)
	}
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      lv,
		TimeFormat: timeFormat,
	})
	return &Logger{Logger: slog.New(handler), level: lv}
}

// SetLevel changes the level of l and of every logger derived from it.
func (l *Logger) SetLevel(level string) error {
	v, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.Set(v)
	return nil
}

// Level returns the current level.
func (l *Logger) Level() slog.Level { return l.level.Level() }

// ParseLevel accepts debug, info, warn (or warning) and error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// LevelString returns the name ParseLevel accepts for l, or "unknown".
func LevelString(l slog.Level) string {
	switch l {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	}
	return "unknown"
}
