//go:build integration

package rediscache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/dbinterface/dbinterfacetest"
	"github.com/mutgos/dbcore/dbtype"
)

func setupHinter(t *testing.T) *EvictionHinter {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, container.Terminate(ctx))
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	conn := &Connection{ConnectionStringSource: connStr}
	require.NoError(t, conn.Connect(ctx))

	return New(conn)
}

func TestIntegration_EvictionHinter_SweepsColdUnreferencedEntries(t *testing.T) {
	hinter := setupHinter(t)
	ctx := context.Background()

	backend := dbinterfacetest.New()
	cache := dbinterface.NewSiteCache(1, backend)

	id := dbid.New(1, 5)

	entity, err := backend.ConstructEntity(ctx, dbtype.TypeThing, id, id, "a cold rock")
	require.NoError(t, err)
	require.NoError(t, backend.PersistEntity(ctx, entity))
	entity.ClearDirty()

	ref := cache.Put(entity)
	require.NoError(t, hinter.Touch(ctx, entity.ID()))

	_, found := cache.Lookup(entity.ID())
	require.True(t, found)

	ref.Release()

	evicted, err := hinter.Sweep(ctx, cache, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, evicted)

	_, stillCached := cache.Lookup(entity.ID())
	assert.False(t, stillCached)
}

func TestIntegration_EvictionHinter_SkipsStillReferencedEntries(t *testing.T) {
	hinter := setupHinter(t)
	ctx := context.Background()

	backend := dbinterfacetest.New()
	cache := dbinterface.NewSiteCache(1, backend)

	id := dbid.New(1, 5)

	entity, err := backend.ConstructEntity(ctx, dbtype.TypeThing, id, id, "a held rock")
	require.NoError(t, err)
	require.NoError(t, backend.PersistEntity(ctx, entity))

	ref := cache.Put(entity)
	defer ref.Release()

	require.NoError(t, hinter.Touch(ctx, entity.ID()))

	evicted, err := hinter.Sweep(ctx, cache, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, evicted)

	_, stillCached := cache.Lookup(entity.ID())
	assert.True(t, stillCached)
}
