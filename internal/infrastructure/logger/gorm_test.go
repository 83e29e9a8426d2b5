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

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func traceFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLoggerTrace(t *testing.T) {
	ctx := context.Background()

	t.Run("query error logs at error level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 0), errors.New("connection reset"))

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "sql error", entry.Message)
		assert.Equal(t, "SELECT 1", entry.ContextMap()["sql"])
	})

	t.Run("record not found is suppressed by default", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("record not found logs when configured", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error, WithIgnoreRecordNotFoundError(false))
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("slow query logs at warn level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))
		gl.Trace(ctx, time.Now().Add(-time.Millisecond), traceFn("SELECT pg_sleep(1)", 1), nil)

		require.Equal(t, 1, logs.Len())
		entry := logs.All()[0]
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
		assert.Equal(t, "slow sql", entry.Message)
	})

	t.Run("info level traces queries at debug", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 1), nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(ctx, time.Now(), traceFn("SELECT 1", 1), errors.New("ignored"))
		assert.Equal(t, 0, logs.Len())
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		reqCtx := WithRequestID(ctx, "req-42")
		gl.Trace(reqCtx, time.Now(), traceFn("SELECT 1", 1), nil)

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestGormLoggerLevels(t *testing.T) {
	ctx := context.Background()

	gl, logs := newObservedGormLogger(gormlogger.Warn)
	gl.Info(ctx, "ignored %s", "msg")
	gl.Warn(ctx, "warned %s", "msg")
	gl.Error(ctx, "errored %s", "msg")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "warned msg", logs.All()[0].Message)
	assert.Equal(t, "errored msg", logs.All()[1].Message)
}

func TestGormLoggerLogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Error)
	clone := gl.LogMode(gormlogger.Info)

	assert.NotSame(t, gormlogger.Interface(gl), clone)
	assert.Equal(t, gormlogger.Error, gl.level)
	assert.Equal(t, gormlogger.Info, clone.(*GormLogger).level)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
		{"unknown", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapGormLogLevel(tt.in), tt.in)
	}
}
