package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pantry/config"
)

func TestNilLoggerSafety(t *testing.T) {
	restore := Replace(nil)
	defer restore()

	assert.NotPanics(t, func() {
		Debug("debug")
		Info("info")
		Warn("warn")
		Error("error")
	})
	assert.NotNil(t, With(zap.String("key", "value")))
	assert.NotNil(t, WithRequestID("req-1"))
	assert.NoError(t, Sync())
}

func TestInit_Stdout(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			require.NoError(t, Init(&config.LogConfig{Level: "info", Output: "stdout"}, env))
			Info("initialized", zap.String("env", env))
			assert.NoError(t, Sync())
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pantry.log")
	cfg := &config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path}
	require.NoError(t, Init(cfg, "production"))

	for i := 0; i < 5; i++ {
		Info("entry", zap.Int("n", i))
	}
	require.NoError(t, Sync())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRotatingFile_Defaults(t *testing.T) {
	l := rotatingFile(&config.LogConfig{FilePath: "x.log"})
	assert.Equal(t, 10, l.MaxSize)
	assert.Equal(t, 5, l.MaxBackups)
	assert.Equal(t, 7, l.MaxAge)

	l = rotatingFile(&config.LogConfig{FilePath: "x.log", MaxSize: 50, MaxBackups: 2, MaxAge: 30, Compress: true})
	assert.Equal(t, 50, l.MaxSize)
	assert.Equal(t, 2, l.MaxBackups)
	assert.Equal(t, 30, l.MaxAge)
	assert.True(t, l.Compress)
}

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	WithRequestID("req-42").Info("handled")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}

func TestUpdateLevel(t *testing.T) {
	require.NoError(t, Init(&config.LogConfig{Level: "debug", Output: "stdout"}, "development"))
	assert.True(t, atomLevel.Enabled(zapcore.DebugLevel))

	UpdateLevel("warn")
	assert.False(t, atomLevel.Enabled(zapcore.InfoLevel))
	assert.True(t, atomLevel.Enabled(zapcore.WarnLevel))

	UpdateLevel("unknown")
	assert.True(t, atomLevel.Enabled(zapcore.InfoLevel))
}
