package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/factorpool/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, level("debug"))
	assert.Equal(t, zapcore.WarnLevel, level("warn"))
	assert.Equal(t, zapcore.WarnLevel, level("WARNING"))
	assert.Equal(t, zapcore.ErrorLevel, level("error"))

	// anything unrecognized falls back to info
	assert.Equal(t, zapcore.InfoLevel, level(""))
	assert.Equal(t, zapcore.InfoLevel, level("verbose"))
}

func TestNew_WritesStructuredJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log := New(config.LogConfig{Level: "info", Format: "json", Output: path})
	log.Info("receivable funded",
		zap.String("receivable_id", "r-1"),
		zap.String("gross", "80000"),
	)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "receivable funded", entry["msg"])
	assert.Equal(t, "r-1", entry["receivable_id"])
	assert.Equal(t, "80000", entry["gross"])
	assert.Equal(t, "info", entry["level"])
	assert.NotEmpty(t, entry["ts"])
	assert.NotEmpty(t, entry["caller"])
}

func TestNew_HonorsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	log := New(config.LogConfig{Level: "warn", Format: "json", Output: path})
	log.Info("suppressed")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "kept")
}

func TestNew_ConsoleAndStdSinks(t *testing.T) {
	// console/stdout and stderr builds must produce usable loggers
	for _, cfg := range []config.LogConfig{
		{Level: "debug", Format: "console", Output: "stdout"},
		{Level: "info", Format: "json", Output: "stderr"},
		{Level: "info", Format: "json"},
	} {
		log := New(cfg)
		require.NotNil(t, log)
		log.Debug("boot")
	}
}

func TestNew_FallsBackWhenPathUnwritable(t *testing.T) {
	// a directory is not a writable log file; the logger still comes up
	log := New(config.LogConfig{Level: "info", Format: "json", Output: t.TempDir()})
	require.NotNil(t, log)
	log.Info("still alive")
}
