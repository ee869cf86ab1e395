package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"Warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup(&buf, "warn")
		logger.Info("hidden")
		logger.Warn("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("invalid level warns and uses info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup(&buf, "loud")
		assert.Contains(t, buf.String(), "invalid log level configured")
		assert.Contains(t, buf.String(), "configured_level=loud")
		buf.Reset()
		logger.Debug("hidden")
		logger.Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("installs default", func(t *testing.T) {
		var buf bytes.Buffer
		Setup(&buf, "info")
		slog.Info("via default")
		assert.Contains(t, buf.String(), "via default")
	})
}
