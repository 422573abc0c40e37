package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/pkg/mint"
	"github.com/hashicorp-forge/persistid/pkg/models"
	"github.com/hashicorp-forge/persistid/pkg/pid"
	"github.com/hashicorp-forge/persistid/pkg/pid/doi"
	"github.com/hashicorp-forge/persistid/pkg/pid/handle"
	"github.com/hashicorp-forge/persistid/pkg/resolve"
)

type testEnv struct {
	db       *gorm.DB
	store    *Store
	registry *pid.Registry
	hdl      *handle.Type
	doi      *doi.Type
}

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))
	return db
}

func newTestEnv(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	ht, err := handle.NewType(pid.DescriptorConfig{Protocol: "http", BaseURI: "hdl.handle.net"})
	require.NoError(t, err)
	dt, err := doi.NewType(pid.DescriptorConfig{Protocol: "https", BaseURI: "doi.org", DropTombstone: true})
	require.NoError(t, err)
	reg, err := pid.NewRegistry(ht, dt)
	require.NoError(t, err)

	s, err := New(db, reg, hclog.NewNullLogger())
	require.NoError(t, err)

	return &testEnv{db: db, store: s, registry: reg, hdl: ht, doi: dt}
}

// createItem stores a new item with a native identifier and a handle.
func (e *testEnv) createItem(t *testing.T, name string) (*models.RepositoryObject, pid.NativeID, pid.ExternalID) {
	t.Helper()
	ctx := context.Background()

	obj := models.NewRepositoryObject(pid.ResourceTypeItem, name)
	require.NoError(t, e.store.CreateObject(ctx, obj))

	native, err := pid.NewNativeID(uuid.New(), obj.ResourceType(), obj.ResourceID())
	require.NoError(t, err)
	suffix, err := e.store.NextSuffix(ctx, "123456789")
	require.NoError(t, err)
	ext, err := pid.NewExternalID(e.hdl, "123456789/"+suffix, &native)
	require.NoError(t, err)

	require.NoError(t, e.store.Register(ctx, native, ext))
	return obj, native, ext
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil, nil)
	assert.Error(t, err)

	_, err = New(setupTestDB(t), nil, nil)
	assert.Error(t, err)
}

func TestStore_Retrieve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, setupTestDB(t))
	obj, native, ext := env.createItem(t, "Thesis")

	t.Run("external", func(t *testing.T) {
		got, ok, err := env.store.RetrieveExternal(ctx, env.hdl, ext.Value())
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(ext))

		bound, err := got.NativeIdentifier()
		require.NoError(t, err)
		assert.True(t, bound.Equal(native))
		assert.Equal(t, pid.ResourceTypeItem, bound.ResourceType())
	})

	t.Run("external missing", func(t *testing.T) {
		_, ok, err := env.store.RetrieveExternal(ctx, env.hdl, "123456789/999")
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = env.store.RetrieveExternal(ctx, env.doi, ext.Value())
		require.NoError(t, err)
		assert.False(t, ok, "lookup is per namespace")
	})

	t.Run("native", func(t *testing.T) {
		got, ok, err := env.store.RetrieveNative(ctx, native.UUID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, obj.ResourceID(), got.ResourceID())

		_, ok, err = env.store.RetrieveNative(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("native by resource", func(t *testing.T) {
		got, ok, err := env.store.RetrieveNativeByResource(ctx, pid.ResourceTypeItem, obj.ResourceID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.Equal(native))

		_, ok, err = env.store.RetrieveNativeByResource(ctx, pid.ResourceTypeBundle, obj.ResourceID())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("writes minted events", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		env.createItem(t, "Thesis")

		count, err := models.CountOutboxByStatus(env.db, models.OutboxStatusPending)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count, "one event for the native and one for the handle")
	})

	t.Run("adds externals to an existing native identifier", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		obj, native, _ := env.createItem(t, "Thesis")

		d, err := pid.NewExternalID(env.doi, "10.5072/abc", &native)
		require.NoError(t, err)
		require.NoError(t, env.store.Register(ctx, native, d))

		got, err := env.store.ExternalIdentifiers(ctx, native)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "hdl", got[0].Namespace())
		assert.Equal(t, "doi", got[1].Namespace())
		assert.Equal(t, obj.ResourceID(), native.ResourceID())
	})

	t.Run("rejects second native identifier", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		obj, _, _ := env.createItem(t, "Thesis")

		other, err := pid.NewNativeID(uuid.New(), obj.ResourceType(), obj.ResourceID())
		require.NoError(t, err)
		err = env.store.Register(ctx, other)
		assert.ErrorIs(t, err, pid.ErrStorage)
	})

	t.Run("rejects duplicate external value", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		_, _, ext := env.createItem(t, "Thesis")

		obj := models.NewRepositoryObject(pid.ResourceTypeItem, "Other")
		require.NoError(t, env.store.CreateObject(ctx, obj))
		native, err := pid.NewNativeID(uuid.New(), obj.ResourceType(), obj.ResourceID())
		require.NoError(t, err)

		err = env.store.Register(ctx, native, ext.WithNativeIdentifier(native))
		assert.ErrorIs(t, err, pid.ErrStorage)

		_, ok, err := env.store.RetrieveNative(ctx, native.UUID())
		require.NoError(t, err)
		assert.False(t, ok, "transaction rolled back")
	})

	t.Run("rejects external bound elsewhere", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		_, _, ext := env.createItem(t, "Thesis")

		other, err := pid.NewNativeID(uuid.New(), pid.ResourceTypeItem, 99)
		require.NoError(t, err)
		assert.Error(t, env.store.Register(ctx, other, ext))
	})

	t.Run("rejects unbound external", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		native, err := pid.NewNativeID(uuid.New(), pid.ResourceTypeItem, 1)
		require.NoError(t, err)
		unbound, err := pid.NewExternalID(env.hdl, "123456789/1", nil)
		require.NoError(t, err)

		assert.ErrorIs(t, env.store.Register(ctx, native, unbound), pid.ErrIdentifierState)
	})

	t.Run("rejects unresolved native", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		assert.Error(t, env.store.Register(ctx, pid.NewUnresolvedNativeID(uuid.New())))
	})
}

func TestStore_Remove(t *testing.T) {
	ctx := context.Background()

	t.Run("retained identifier becomes a tombstone", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		_, _, ext := env.createItem(t, "Thesis")
		require.True(t, ext.RetainTombstone())

		removed, err := env.store.Remove(ctx, ext)
		require.NoError(t, err)
		assert.True(t, removed)

		_, ok, err := env.store.RetrieveExternal(ctx, env.hdl, ext.Value())
		require.NoError(t, err)
		assert.False(t, ok)

		tombstoned, err := env.store.IsTombstoned(ctx, env.hdl, ext.Value())
		require.NoError(t, err)
		assert.True(t, tombstoned)

		var entry models.IdentifierOutbox
		require.NoError(t, env.db.Where("event_type = ?", models.IdentifierEventTombstoned).First(&entry).Error)
		assert.Equal(t, ext.Canonical(), entry.Identifier)

		removed, err = env.store.Remove(ctx, ext)
		require.NoError(t, err)
		assert.False(t, removed, "already tombstoned")
	})

	t.Run("dropped identifier is deleted", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		_, native, _ := env.createItem(t, "Thesis")

		d, err := pid.NewExternalID(env.doi, "10.5072/abc", &native)
		require.NoError(t, err)
		require.NoError(t, env.store.Register(ctx, native, d))
		require.False(t, d.RetainTombstone())

		removed, err := env.store.Remove(ctx, d)
		require.NoError(t, err)
		assert.True(t, removed)

		tombstoned, err := env.store.IsTombstoned(ctx, env.doi, d.Value())
		require.NoError(t, err)
		assert.False(t, tombstoned)

		_, err = models.GetExternalIdentifier(env.db, "doi", "10.5072/abc")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		var entry models.IdentifierOutbox
		require.NoError(t, env.db.Where("event_type = ?", models.IdentifierEventDeleted).First(&entry).Error)
		assert.Equal(t, "doi:10.5072/abc", entry.Identifier)
	})

	t.Run("unknown identifier", func(t *testing.T) {
		env := newTestEnv(t, setupTestDB(t))
		ext, err := pid.NewExternalID(env.hdl, "123456789/5", nil)
		require.NoError(t, err)

		removed, err := env.store.Remove(ctx, ext)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestStore_NextSuffix(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, setupTestDB(t))

	a, err := env.store.NextSuffix(ctx, "123456789")
	require.NoError(t, err)
	b, err := env.store.NextSuffix(ctx, "123456789")
	require.NoError(t, err)
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)

	_, err = env.store.NextSuffix(ctx, "")
	assert.ErrorIs(t, err, pid.ErrStorage)
}

func TestStore_Fetch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, setupTestDB(t))
	obj, native, ext := env.createItem(t, "Thesis")

	got, ok, err := env.store.FetchItem(ctx, obj.ResourceID())
	require.NoError(t, err)
	require.True(t, ok)

	loaded, isObj := got.(*models.RepositoryObject)
	require.True(t, isObj)
	assert.Equal(t, "Thesis", loaded.Name)
	assert.True(t, loaded.NativeIdentifier().Equal(native))
	require.Len(t, loaded.ExternalIdentifiers(), 1)
	assert.True(t, loaded.ExternalIdentifiers()[0].Equal(ext))

	_, ok, err = env.store.FetchCollection(ctx, obj.ResourceID())
	require.NoError(t, err)
	assert.False(t, ok, "type must match")

	t.Run("object without identifiers", func(t *testing.T) {
		bare := models.NewRepositoryObject(pid.ResourceTypePerson, "Ada")
		require.NoError(t, env.store.CreateObject(ctx, bare))

		got, ok, err := env.store.FetchPerson(ctx, bare.ResourceID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, got.(*models.RepositoryObject).NativeIdentifier().IsZero())

		pending, err := env.store.ObjectsWithoutNativeIdentifier(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, bare.ID, pending[0].ID)
	})
}

// TestStore_MintAndResolve runs the whole lifecycle against the store:
// create, mint, register, resolve, dispatch, tombstone.
func TestStore_MintAndResolve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, setupTestDB(t))

	assigner, err := handle.NewAssigner(env.hdl, "123456789", env.store)
	require.NoError(t, err)
	minter, err := mint.New([]mint.Assigner{assigner})
	require.NoError(t, err)

	obj := models.NewRepositoryObject(pid.ResourceTypeCommunity, "Physics")
	require.NoError(t, env.store.CreateObject(ctx, obj))

	native, err := minter.MintNative(obj)
	require.NoError(t, err)
	externals, err := minter.MintAllExternal(ctx, obj)
	require.NoError(t, err)
	require.Len(t, externals, 1)
	require.NoError(t, env.store.Register(ctx, native, externals...))

	resolver, err := resolve.New(resolve.Config{
		Registry: env.registry,
		Store:    env.store,
		Fetcher:  env.store,
	})
	require.NoError(t, err)

	for _, input := range []string{
		externals[0].Canonical(),
		"/handle/" + externals[0].URLForm(),
		native.Canonical(),
		"/entities/uuid/" + native.UUID().String() + "/full",
	} {
		t.Run(input, func(t *testing.T) {
			found, ok, err := resolver.ResolveResource(ctx, input)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, pid.ResourceTypeCommunity, found.ResourceType())
			assert.Equal(t, obj.ResourceID(), found.ResourceID())
		})
	}

	t.Run("preferred identifier", func(t *testing.T) {
		loaded, ok, err := env.store.FetchObject(ctx, pid.ResourceTypeCommunity, obj.ResourceID())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, externals[0].Canonical(), pid.PreferredIdentifier(loaded, "hdl").Canonical())
		assert.Equal(t, native.Canonical(), pid.PreferredIdentifier(loaded, "doi").Canonical())
	})

	t.Run("tombstoned handle no longer resolves", func(t *testing.T) {
		removed, err := env.store.Remove(ctx, externals[0])
		require.NoError(t, err)
		require.True(t, removed)

		_, ok, err := resolver.Resolve(ctx, externals[0].Canonical())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("deleted object", func(t *testing.T) {
		require.NoError(t, env.db.Delete(obj).Error)

		_, err := resolver.Resource(ctx, native)
		assert.ErrorIs(t, err, pid.ErrResourceNotFound)
	})
}
