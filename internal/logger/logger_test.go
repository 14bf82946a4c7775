package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"demotools/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_ConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := NewLogger(LoggerConfig{Level: "debug", Format: "json", OutputPath: path, MaxSize: 1, Console: &buf})
	require.NoError(t, err)
	log.Debug("page fetched", zap.Int("count", 500))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "page fetched", entry["msg"])
	assert.Contains(t, entry, "timestamp")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count":500`)
}

func TestNewLogger_LevelFilter(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"nonsense", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log, err := NewLogger(LoggerConfig{Level: tt.level, Format: "console", Console: &buf})
			require.NoError(t, err)
			log.Debug("debug line")
			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug line"))
		})
	}
}

func TestFromConfig(t *testing.T) {
	lc := FromConfig(config.LoggerConfig{Level: "warn", Format: "json", OutputPath: "logs/x.log", MaxAge: 3})
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "logs/x.log", lc.OutputPath)
	assert.Equal(t, 3, lc.MaxAge)
	assert.Nil(t, lc.Console)
}
