//go:build integration

package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// setupBackend starts a disposable mongodb container and returns a Backend
// wired to it, mirroring the postgres package's container-per-test pattern.
func setupBackend(t *testing.T) *Backend {
	t.Helper()

	ctx := context.Background()

	container, err := tcmongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(ctx))
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	conn := &Connection{
		ConnectionStringSource: connStr,
		Database:               "mutgosdb",
	}
	require.NoError(t, conn.Connect(ctx))

	backend := New(conn)
	require.NoError(t, backend.EnsureIndexes(ctx))

	return backend
}

func TestIntegration_Backend_AllocateSite_Increments(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	first, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	second, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestIntegration_Backend_AllocateEntityID_StartsAtFive(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	site, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	first, err := backend.AllocateEntityID(ctx, site)
	require.NoError(t, err)
	assert.EqualValues(t, 5, first)

	second, err := backend.AllocateEntityID(ctx, site)
	require.NoError(t, err)
	assert.EqualValues(t, 6, second)
}

func TestIntegration_Backend_PersistAndLoadEntity(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	site, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	entID, err := backend.AllocateEntityID(ctx, site)
	require.NoError(t, err)

	id := dbid.New(site, entID)

	entity, err := backend.ConstructEntity(ctx, dbtype.TypeThing, id, id, "a brass lantern")
	require.NoError(t, err)
	require.NoError(t, backend.PersistEntity(ctx, entity))

	loaded, err := backend.LoadEntity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, loaded.ID())
	assert.Equal(t, dbtype.TypeThing, loaded.Type())
}

func TestIntegration_Backend_LoadEntity_NotFound(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	_, err := backend.LoadEntity(ctx, dbid.New(1, 999))
	assert.Error(t, err)
}

func TestIntegration_Backend_DeleteEntityPersistent(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	site, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	entID, err := backend.AllocateEntityID(ctx, site)
	require.NoError(t, err)

	id := dbid.New(site, entID)

	entity, err := backend.ConstructEntity(ctx, dbtype.TypeThing, id, id, "a doomed rock")
	require.NoError(t, err)
	require.NoError(t, backend.PersistEntity(ctx, entity))

	require.NoError(t, backend.DeleteEntityPersistent(ctx, id))

	_, err = backend.LoadEntity(ctx, id)
	assert.Error(t, err)
}

func TestIntegration_Backend_Find_ExactAndSubstring(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	site, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	for _, name := range []string{"Alice", "Alicia", "Bob"} {
		entID, err := backend.AllocateEntityID(ctx, site)
		require.NoError(t, err)

		id := dbid.New(site, entID)

		entity, err := backend.ConstructEntity(ctx, dbtype.TypePlayer, id, id, name)
		require.NoError(t, err)
		require.NoError(t, backend.PersistEntity(ctx, entity))
	}

	exact, err := backend.Find(ctx, site, dbtype.TypePlayer, "alice", true)
	require.NoError(t, err)
	assert.Len(t, exact, 1)

	substring, err := backend.Find(ctx, site, dbtype.TypePlayer, "lic", false)
	require.NoError(t, err)
	assert.Len(t, substring, 2)
}

func TestIntegration_Backend_DeleteSite_RemovesEntities(t *testing.T) {
	backend := setupBackend(t)
	ctx := context.Background()

	site, err := backend.AllocateSite(ctx)
	require.NoError(t, err)

	entID, err := backend.AllocateEntityID(ctx, site)
	require.NoError(t, err)

	id := dbid.New(site, entID)

	entity, err := backend.ConstructEntity(ctx, dbtype.TypeThing, id, id, "a transient box")
	require.NoError(t, err)
	require.NoError(t, backend.PersistEntity(ctx, entity))

	require.NoError(t, backend.DeleteSite(ctx, site))

	_, err = backend.LoadEntity(ctx, id)
	assert.Error(t, err)
}
