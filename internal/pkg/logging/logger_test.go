package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shop.log")

	logger, err := NewLogger(Options{Service: "shop", Env: "test", LogFile: path, Level: zapcore.InfoLevel})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("cart_ready")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"cart_ready"`)
	assert.Contains(t, out, `"service":"shop"`)
	assert.Contains(t, out, `"env":"test"`)
	assert.False(t, strings.Contains(out, "hidden"))
}

func TestMustNewLoggerPanicsOnBadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Panics(t, func() {
		MustNewLogger(Options{LogFile: filepath.Join(file, "nested", "shop.log")})
	})
}
