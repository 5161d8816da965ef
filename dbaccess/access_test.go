package dbaccess_test

import (
	"context"
	"testing"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbaccess"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/dbinterface/dbinterfacetest"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/stretchr/testify/assert"
)

func TestDatabaseAccess_CreateAndRead(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, err := access.NewSite(ctx, "test")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, site)

	ref, code, err := access.NewEntity(ctx, dbtype.TypePlayer, site, dbid.Default, "Alice")
	assert.NoError(t, err)
	assert.Equal(t, dbinterface.OK, code)
	defer ref.Release()

	id := ref.Entity().ID()
	assert.EqualValues(t, 5, id.EntityID())

	reader := concurrency.AcquireReader(ref.Entity(), ref.Entity().LockIdentity())
	defer reader.Release()

	owner, err := ref.Entity().Owner(reader)
	assert.NoError(t, err)
	assert.True(t, owner.Equal(id), "new entity with default owner must self-own")

	name, err := ref.Entity().Name(reader)
	assert.NoError(t, err)
	assert.Equal(t, "Alice", name)

	got, err := access.GetEntity(ctx, id)
	assert.NoError(t, err)
	defer got.Release()
	assert.Equal(t, ref.Entity(), got.Entity())
}

func TestDatabaseAccess_NewEntity_BadSiteID(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)

	_, code, err := access.NewEntity(context.Background(), dbtype.TypeThing, 99, dbid.Default, "a rock")
	assert.Error(t, err)
	assert.Equal(t, dbinterface.BadSiteID, code)
}

func TestDatabaseAccess_NewEntity_BadName(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	site, _ := access.NewSite(context.Background(), "test")

	_, code, err := access.NewEntity(context.Background(), dbtype.TypeThing, site, dbid.Default, "")
	assert.Error(t, err)
	assert.Equal(t, dbinterface.BadName, code)
}

func TestDatabaseAccess_DeleteWhilePinned(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, _ := access.NewSite(ctx, "test")
	created, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)
	id := created.Entity().ID()
	created.Release()
	assert.NoError(t, access.CommitAll(ctx))

	r, err := access.GetEntity(ctx, id)
	assert.NoError(t, err)

	code, err := access.DeleteEntity(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, dbinterface.OKDelayed, code)

	_, err = access.GetEntity(ctx, id)
	assert.Error(t, err, "pending-delete entity must not be handed out")

	r.Release()

	assert.NoError(t, access.ReapPendingDeletes(ctx))
	assert.Equal(t, []dbid.Id{id}, backend.DeleteCalls)
}

func TestDatabaseAccess_DeleteUnreferencedIsImmediate(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, _ := access.NewSite(ctx, "test")
	created, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)
	id := created.Entity().ID()
	created.Release()

	code, err := access.DeleteEntity(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, dbinterface.OK, code)
	assert.Equal(t, []dbid.Id{id}, backend.DeleteCalls)
}

func TestDatabaseAccess_CommitAllPersistsDirtyEntities(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, _ := access.NewSite(ctx, "test")
	ref, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)
	defer ref.Release()

	assert.NoError(t, access.CommitAll(ctx))
	assert.Contains(t, backend.PersistCalls, ref.Entity().ID())
	assert.False(t, ref.Entity().IsDirty())
}

func TestDatabaseAccess_DeleteSite_DelayedWhileReferenced(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, _ := access.NewSite(ctx, "test")
	ref, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)

	code, err := access.DeleteSite(ctx, site)
	assert.NoError(t, err)
	assert.Equal(t, dbinterface.OKDelayed, code)

	ref.Release()

	assert.NoError(t, access.ReapPendingSites(ctx))
	assert.Equal(t, []uint32{site}, backend.DeletedSites())
}

func TestDatabaseAccess_Find(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, _ := access.NewSite(ctx, "test")
	ref, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)
	defer ref.Release()
	assert.NoError(t, access.CommitAll(ctx))

	ids, err := access.Find(ctx, site, dbtype.TypeThing, "a rock", true)
	assert.NoError(t, err)
	assert.Equal(t, []dbid.Id{ref.Entity().ID()}, ids)
}

func TestDatabaseAccess_NewSite_SeedsReservedEntities(t *testing.T) {
	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	ctx := context.Background()

	site, err := access.NewSite(ctx, "test")
	assert.NoError(t, err)

	cases := []struct {
		entityID uint32
		typ      dbtype.EntityType
		name     string
	}{
		{1, dbtype.TypeRegion, "Root Region"},
		{2, dbtype.TypePlayer, "System"},
		{3, dbtype.TypeRoom, "Default Room"},
		{4, dbtype.TypePlayer, "Administrator"},
	}

	for _, tc := range cases {
		id := dbid.New(site, tc.entityID)

		ref, err := access.GetEntity(ctx, id)
		assert.NoError(t, err, "reserved id %s must already exist", id)

		assert.Equal(t, tc.typ, ref.Entity().Type())

		reader := concurrency.AcquireReader(ref.Entity(), ref.Entity().LockIdentity())
		name, err := ref.Entity().Name(reader)
		reader.Release()
		assert.NoError(t, err)
		assert.Equal(t, tc.name, name)

		ref.Release()
	}

	roomID := dbid.New(site, 3)
	rootID := dbid.New(site, 1)

	room, err := access.GetEntity(ctx, roomID)
	assert.NoError(t, err)
	defer room.Release()

	reader := concurrency.AcquireReader(room.Entity(), room.Entity().LockIdentity())
	defer reader.Release()

	containedBy, err := room.Entity().ContainedBy(reader)
	assert.NoError(t, err)
	assert.True(t, containedBy.Equal(rootID), "Default Room must sit inside Root Region")

	// The four reserved ids are never handed out by the allocator itself.
	ref, _, err := access.NewEntity(ctx, dbtype.TypeThing, site, dbid.Default, "a rock")
	assert.NoError(t, err)
	defer ref.Release()
	assert.EqualValues(t, 5, ref.Entity().ID().EntityID())
}
