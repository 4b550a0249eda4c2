package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("TextFiltersByLevel", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New("warn", "text", &buf)

		logger.Info("hidden")
		logger.Warn("shown", "organism", "Lion")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "level=WARN")
		assert.Contains(t, out, "msg=shown")
		assert.Contains(t, out, "organism=Lion")
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New("debug", "json", &buf)

		logger.Debug("loaded", "nodes", 8)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "DEBUG", record["level"])
		assert.Equal(t, "loaded", record["msg"])
		assert.EqualValues(t, 8, record["nodes"])
	})

	t.Run("Discard", func(t *testing.T) {
		t.Parallel()
		assert.False(t, Discard().Enabled(t.Context(), slog.LevelError))
	})
}
