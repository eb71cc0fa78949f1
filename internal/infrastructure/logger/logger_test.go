package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"default config", DefaultConfig()},
		{"json to stderr", &Config{Level: "debug", Format: "json", Output: "stderr"}},
		{"empty output", &Config{Level: "warn", Format: "console"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Info("import finished", zap.String("run_id", "r-1"))
	require.NoError(t, Sync(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "import finished", entry["msg"])
	assert.Equal(t, "r-1", entry["run_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "app.log")})
	assert.Error(t, err)
}

func TestNew_ExtraCoreReceivesEntries(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	l, err := New(&Config{Level: "error", Output: "stderr"}, core)
	require.NoError(t, err)

	l.Info("bridged")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "bridged", recorded.All()[0].Message)
}

func TestTee(t *testing.T) {
	first, firstLogs := observer.New(zapcore.InfoLevel)
	second, secondLogs := observer.New(zapcore.InfoLevel)

	l := Tee(zap.New(first), second)
	l.Info("both")

	assert.Equal(t, 1, firstLogs.Len())
	assert.Equal(t, 1, secondLogs.Len())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}
