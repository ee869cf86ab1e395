// Package logging configures structured logging for pantry.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "info"

// ParseLevel maps a case-insensitive level name to a slog.Level.
// The second result is false for unknown names, in which case LevelInfo
// is returned.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Setup builds a text logger writing to w at the given level and installs
// it as the slog default. An unknown level falls back to info and the
// fallback is logged as a warning.
func Setup(w io.Writer, level string) *slog.Logger {
	lvl, ok := ParseLevel(level)
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	if !ok {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", level,
			"default_level", DefaultLevel)
	}
	slog.SetDefault(logger)
	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
