package store

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/internal/migrate"
	"github.com/hashicorp-forge/persistid/pkg/database"
	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

// setupPostgresDB starts a PostgreSQL container and applies the SQL
// migrations to it.
func setupPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("persistid"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := database.Connect(ctx, database.Config{
		Driver:   database.DriverPostgres,
		Host:     host,
		Port:     port.Int(),
		User:     "postgres",
		Password: "postgres",
		DBName:   "persistid",
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrate.RunMigrations(sqlDB, migrate.DriverPostgres))
	return db
}

func TestStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	env := newTestEnv(t, setupPostgresDB(t))

	obj, native, ext := env.createItem(t, "Postgres item")

	t.Run("retrieve", func(t *testing.T) {
		got, ok, err := env.store.RetrieveExternal(ctx, env.hdl, ext.Value())
		require.NoError(t, err)
		require.True(t, ok)
		bound, err := got.NativeIdentifier()
		require.NoError(t, err)
		assert.True(t, bound.Equal(native))

		byUUID, ok, err := env.store.RetrieveNative(ctx, native.UUID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, obj.ResourceID(), byUUID.ResourceID())
	})

	t.Run("outbox payload round trips through jsonb", func(t *testing.T) {
		entries, err := models.FindPendingOutboxEntries(env.db, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ext.Canonical(), entries[1].Payload["identifier"])
	})

	t.Run("duplicate external identifier is rejected", func(t *testing.T) {
		err := env.store.Register(ctx, native, ext)
		require.Error(t, err)
		assert.ErrorIs(t, err, pid.ErrStorage)
	})

	t.Run("tombstone", func(t *testing.T) {
		removed, err := env.store.Remove(ctx, ext)
		require.NoError(t, err)
		assert.True(t, removed)

		tombstoned, err := env.store.IsTombstoned(ctx, env.hdl, ext.Value())
		require.NoError(t, err)
		assert.True(t, tombstoned)
	})

	t.Run("concurrent suffix allocation is unique", func(t *testing.T) {
		const workers = 20

		var (
			mu   sync.Mutex
			seen = make(map[string]bool)
			wg   sync.WaitGroup
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				suffix, err := env.store.NextSuffix(ctx, "123456789")
				assert.NoError(t, err)
				mu.Lock()
				seen[suffix] = true
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Len(t, seen, workers)
		for i := 2; i <= workers+1; i++ {
			assert.True(t, seen[strconv.Itoa(i)], "missing suffix %d", i)
		}
	})
}
