package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grez-lucas/menzzo-e2e/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "e2e"}, zapcore.AddSync(&buf))

	log.Info("dropped")
	log.Warn("agreement checkbox absent", zap.String("locale", "fr"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "e2e", entry["logger"])
	assert.Equal(t, "fr", entry["locale"])
}

func TestNewLoggerUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "loud", Format: "console"}, zapcore.AddSync(&buf))

	log.Debug("hidden")
	log.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "e2e.log")
	var buf bytes.Buffer
	log := NewLogger(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&buf))

	log.Debug("click cascade", zap.String("strategy", "button-role"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"strategy":"button-role"`)
	assert.Contains(t, buf.String(), "click cascade")
}
