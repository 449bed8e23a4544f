package logs

import (
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cmpt-474-edu-monitor/sdk/internal/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestFunc_ParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestFunc_Output(t *testing.T) {
	assert.Equal(t, os.Stdout, Output("%1%"))
	assert.Equal(t, os.Stderr, Output("%2%"))
	assert.Equal(t, os.Stderr, Output(""))
}

func TestFunc_SetupLoggerFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := SetupLogger(&config.Log{
		JSON:    ptr(true),
		Level:   ptr("debug"),
		OutPath: ptr(dir),
	})
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, GlobalLevel)

	l.Info("hello")
	data, err := os.ReadFile(filepath.Join(dir, "event.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestFunc_SlogWriter(t *testing.T) {
	h := NewMockHandler()
	std := log.New(&SlogWriter{Logger: slog.New(h), Level: slog.LevelError}, "", 0)

	std.Println("tls handshake error  ")
	assert.Equal(t, []string{"tls handshake error"}, h.Messages())
	assert.Equal(t, slog.LevelError, h.Logs[0].Level)
}
