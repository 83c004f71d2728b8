package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nulzo/prism-local/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prism.log")

	log, level := New(Config{Level: "info", Format: "json", File: path, MaxSizeMB: 1})
	log.Info("model loaded", zap.String("id", "model1"))
	log.Debug("hidden")
	_ = log.Sync()

	assert.Equal(t, zapcore.InfoLevel, level.Level())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"model loaded"`)
	assert.Contains(t, string(data), `"id":"model1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestShouldEnableColor(t *testing.T) {
	t.Setenv("LOG_COLOR", "0")
	assert.False(t, shouldEnableColor())

	t.Setenv("NO_COLOR", "1")
	t.Setenv("LOG_COLOR", "1")
	assert.False(t, shouldEnableColor())
}

func TestRequestEncoder_ColorsRequestFields(t *testing.T) {
	cfg := zap.NewDevelopmentEncoderConfig()
	enc := newRequestEncoder(cfg).Clone()

	buf, err := enc.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Message: "POST /v1/chat/completions"}, []zapcore.Field{
		zap.String("request_id", "req-1"),
		zap.String("model", "model1"),
		zap.Int("status", 404),
		zap.Int64("bytes", 0),
	})
	require.NoError(t, err)
	line := buf.String()

	assert.Contains(t, line, "POST /v1/chat/completions\t{")
	assert.Contains(t, line, cli.Cyan+`"req-1"`+cli.ResetCode)
	assert.Contains(t, line, cli.Bold+cli.Cyan+`"model1"`+cli.ResetCode)
	assert.Contains(t, line, cli.Yellow+"404"+cli.ResetCode)
	assert.Contains(t, line, cli.Purple+"0"+cli.ResetCode)
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestRequestEncoder_NoFieldsUnchanged(t *testing.T) {
	cfg := zap.NewDevelopmentEncoderConfig()
	ent := zapcore.Entry{Level: zapcore.WarnLevel, Message: "runtime not reachable"}

	plain, err := zapcore.NewConsoleEncoder(cfg).EncodeEntry(ent, nil)
	require.NoError(t, err)
	colored, err := newRequestEncoder(cfg).EncodeEntry(ent, nil)
	require.NoError(t, err)

	assert.Equal(t, plain.String(), colored.String())
}
