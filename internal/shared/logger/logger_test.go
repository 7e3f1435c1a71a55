package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	l := New(nil)
	require.NotNil(t, l)
	assert.False(t, l.Enabled(nil, slog.LevelDebug))
	assert.True(t, l.Enabled(nil, slog.LevelInfo))
}

func TestNewJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "debug", Format: "json", Output: &buf})

	l.Info("scheduling run finished", "created", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scheduling run finished", entry["msg"])
	assert.EqualValues(t, 3, entry["created"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestNewZapLogger(t *testing.T) {
	l, err := NewZapLogger(&Config{Level: "warn", Format: "json"})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.False(t, l.Core().Enabled(0)) // info disabled at warn level
}
