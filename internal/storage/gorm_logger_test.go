package storage

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
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func observedGormLogger(level logger.LogLevel) (logger.Interface, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return newGormLogger(zap.New(core), level), logs
}

func traceSQL() (string, int64) { return "SELECT * FROM questions", 3 }

func TestGormLogger_WarnReachesZap(t *testing.T) {
	l, logs := observedGormLogger(logger.Warn)

	l.Warn(context.Background(), "pool %s", "exhausted")
	l.Info(context.Background(), "dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "pool exhausted", entries[0].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
}

func TestGormLogger_TraceFailedQuery(t *testing.T) {
	l, logs := observedGormLogger(logger.Warn)

	l.Trace(context.Background(), time.Now(), traceSQL, errors.New("connection reset"))

	entries := logs.FilterMessage("query failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SELECT * FROM questions", entries[0].ContextMap()["sql"])
	assert.Equal(t, int64(3), entries[0].ContextMap()["rows"])
}

func TestGormLogger_TraceSkipsRecordNotFound(t *testing.T) {
	l, logs := observedGormLogger(logger.Warn)

	l.Trace(context.Background(), time.Now(), traceSQL, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.Len())
}

func TestGormLogger_TraceSlowQuery(t *testing.T) {
	l, logs := observedGormLogger(logger.Warn)

	l.Trace(context.Background(), time.Now().Add(-time.Second), traceSQL, nil)
	require.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(context.Background(), time.Now(), traceSQL, nil)
	assert.Equal(t, 1, logs.Len())
}

func TestGormLogger_LogMode(t *testing.T) {
	base, logs := observedGormLogger(logger.Warn)

	silent := base.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), traceSQL, errors.New("boom"))
	silent.Error(context.Background(), "boom")
	assert.Zero(t, logs.Len())

	verbose := base.LogMode(logger.Info)
	verbose.Trace(context.Background(), time.Now(), traceSQL, nil)
	assert.Equal(t, 1, logs.FilterMessage("query").Len())

	base.Info(context.Background(), "still warn level")
	assert.Equal(t, 1, logs.Len())
}
