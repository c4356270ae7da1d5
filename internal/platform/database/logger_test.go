package database

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
	gormlogger "gorm.io/gorm/logger"
)

func TestOpenLogsFailedStatementsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	db, err := Open(context.Background(), "sqlite", ":memory:", zap.New(core))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.Error(t, db.Exec("SELECT * FROM missing_table").Error)

	entries := logs.FilterMessage("query failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "gorm", entries[0].LoggerName)
	assert.Contains(t, entries[0].ContextMap()["sql"], "missing_table")
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), 50*time.Millisecond)
	fc := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Zero(t, logs.Len(), "not-found and fast queries stay quiet at warn level")

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 1, logs.FilterMessage("slow query").Len())

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	require.Equal(t, 1, logs.FilterMessage("query failed").Len())

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	silent.Error(context.Background(), "dropped %d", 1)
	assert.Equal(t, 2, logs.Len())

	verbose := l.LogMode(gormlogger.Info)
	verbose.Trace(context.Background(), time.Now(), fc, nil)
	verbose.Info(context.Background(), "opened %s", "db")
	assert.Equal(t, 1, logs.FilterMessage("query").Len())
	assert.Equal(t, 1, logs.FilterMessage("opened db").Len())
}
