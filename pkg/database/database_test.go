package database

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "persistid", Password: "secret", DBName: "ids"}
	assert.Equal(t,
		"host=db port=5432 user=persistid password=secret dbname=ids sslmode=disable",
		cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestConnect_SQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persistid.db")

	db, err := Connect(ctx, Config{Driver: DriverSQLite, Path: path}, hclog.NewNullLogger())
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)

	stats, err := GetPoolStats(db)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections, "sqlite defaults to a single connection")
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestConnect_CustomPool(t *testing.T) {
	db, err := Connect(context.Background(), Config{
		Driver:       DriverSQLite,
		Path:         ":memory:",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, nil)
	require.NoError(t, err)

	stats, err := GetPoolStats(db)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.MaxOpenConnections)
}

func TestConnect_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := Connect(ctx, Config{Driver: "mysql"}, nil)
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Connect(ctx, Config{Driver: DriverSQLite}, nil)
	assert.ErrorContains(t, err, "path is required")
}

func TestConnect_GivesUpWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := Connect(ctx, Config{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "nobody",
		DBName:         "none",
		ConnectRetries: 3,
	}, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestGormLogger(t *testing.T) {
	var buf bytes.Buffer
	log := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace})
	gl := NewGormLogger(log)

	sql := func() (string, int64) { return "SELECT * FROM native_identifiers", 0 }

	t.Run("record not found is not an error", func(t *testing.T) {
		buf.Reset()
		gl.LogMode(logger.Error).Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
		assert.NotContains(t, buf.String(), "database query failed")
	})

	t.Run("query errors are logged", func(t *testing.T) {
		buf.Reset()
		gl.LogMode(logger.Error).Trace(context.Background(), time.Now(), sql, errors.New("syntax error"))
		assert.Contains(t, buf.String(), "database query failed")
	})

	t.Run("slow queries are logged", func(t *testing.T) {
		buf.Reset()
		gl.LogMode(logger.Warn).Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
		assert.Contains(t, buf.String(), "slow database query")
	})

	t.Run("silent", func(t *testing.T) {
		buf.Reset()
		gl.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}
