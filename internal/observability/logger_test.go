// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/jobflow/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("console output carries colorized level and component name", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "jobflow",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))
		Named("wait").Info("condition satisfied")
		Sync()

		out := buf.String()
		assert.Contains(t, out, ansiGreen+"INFO"+ansiReset)
		assert.Contains(t, out, "[jobflow.wait]")
		assert.Contains(t, out, "condition satisfied")
	})

	t.Run("json output is structured", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "jobflow"}, zapcore.AddSync(&buf))
		GetLogger().Warn("step failed", zap.String("step", "open careers"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "jobflow", entry["logger"])
		assert.Equal(t, "step failed", entry["msg"])
		assert.Equal(t, "open careers", entry["step"])
	})

	t.Run("level filters debug entries", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.AddSync(&buf))
		GetLogger().Debug("hidden")
		Sync()
		assert.Empty(t, buf.String())
	})

	t.Run("only the first initialization wins", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, zapcore.AddSync(&buf))
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, zapcore.AddSync(&buf))
		assert.Same(t, first, GetLogger())

		GetLogger().Info("hello")
		Sync()
		assert.True(t, strings.Contains(buf.String(), "first"))
		assert.False(t, strings.Contains(buf.String(), "second"))
	})
}

func TestNewWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobflow.log")
	var console bytes.Buffer

	logger := New(config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&console))
	logger.Error("screenshot write failed")
	_ = logger.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"screenshot write failed"`)
	assert.Contains(t, console.String(), "screenshot write failed")
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, Named("runner"))
}
