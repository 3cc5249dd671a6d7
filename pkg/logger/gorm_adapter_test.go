package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func TestGormLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		wantInfo  bool
		wantTrace bool
	}{
		{"warn", gormlogger.Warn, false, false},
		{"info", gormlogger.Info, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			logs := observe(t)
			adapter := NewGormLogger(tc.level)
			require.NotNil(t, adapter.LogMode(gormlogger.Info))

			ctx := context.Background()
			adapter.Info(ctx, "info %d", 1)
			adapter.Warn(ctx, "warn %d", 2)
			adapter.Error(ctx, "error %d", 3)
			adapter.Trace(ctx, time.Now(), func() (string, int64) {
				return "SELECT * FROM ingredients", 1
			}, nil)

			got := messages(logs)
			assert.Contains(t, got, "warn 2")
			assert.Contains(t, got, "error 3")
			if tc.wantInfo {
				assert.Contains(t, got, "info 1")
			} else {
				assert.NotContains(t, got, "info 1")
			}
			if tc.wantTrace {
				assert.Contains(t, got, "sql")
			} else {
				assert.NotContains(t, got, "sql")
			}
		})
	}
}

func TestGormLogger_Silent(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLogger(gormlogger.Silent)
	adapter.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT 1", 1
	}, errors.New("boom"))
	assert.Zero(t, logs.Len())
}

func TestGormLogger_SlowQueryCarriesRequestID(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLogger(gormlogger.Info, WithSlowQuery(time.Millisecond))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	adapter.Trace(ctx, time.Now().Add(-10*time.Millisecond), func() (string, int64) {
		return "SELECT * FROM shopping_sessions", 1
	}, nil)
	adapter.Trace(ctx, time.Now(), func() (string, int64) {
		return "SELECT * FROM units WHERE id = 'x'", 0
	}, gormlogger.ErrRecordNotFound)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "slow sql", entries[0].Message)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestGormLogger_ErrorsLogged(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLogger(gormlogger.Warn)
	adapter.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "UPDATE ingredients SET quantity = 1", 0
	}, errors.New("deadlock"))
	adapter.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "SELECT * FROM units WHERE id = 'x'", 0
	}, gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sql failed", logs.All()[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestGormLogger_NotFoundLoggedOnRequest(t *testing.T) {
	logs := observe(t)
	adapter := NewGormLogger(gormlogger.Warn, WithNotFoundLogged(), WithSlowQuery(0))
	adapter.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
		return "SELECT * FROM units WHERE id = 'x'", 0
	}, gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sql failed", logs.All()[0].Message)
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))
	assert.Equal(t, ctx, ContextWithRequestID(ctx, ""))
	assert.Equal(t, "abc", RequestIDFromContext(ContextWithRequestID(ctx, "abc")))
}
