package primitives_test

import (
	"context"
	"testing"

	"github.com/mutgos/dbcore/dbaccess"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbinterface/dbinterfacetest"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/mutgos/dbcore/primitives"
	"github.com/stretchr/testify/assert"
)

func newTestPrims(t *testing.T) (*primitives.DatabasePrims, uint32) {
	t.Helper()

	prims, _, site := newTestPrimsWithAccess(t)

	return prims, site
}

func newTestPrimsWithAccess(t *testing.T) (*primitives.DatabasePrims, *dbaccess.DatabaseAccess, uint32) {
	t.Helper()

	backend := dbinterfacetest.New()
	access := dbaccess.New(backend, nil)
	prims := primitives.New(access, nil)

	site, err := access.NewSite(context.Background(), "test")
	assert.NoError(t, err)

	return prims, access, site
}

func TestDatabasePrims_CreateAndIsValid(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "a rock")
	assert.NoError(t, err)
	assert.True(t, p.IsEntityValid(ctx, id))

	typ, err := p.GetEntityType(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, dbtype.TypeThing, typ)
}

func TestDatabasePrims_CreateEntity_RejectsCapability(t *testing.T) {
	p, site := newTestPrims(t)

	_, err := p.CreateEntity(context.Background(), site, dbtype.TypeCapability, dbid.Default, "root")
	assert.Error(t, err)
}

func TestDatabasePrims_DeleteEntity_ReservedIDRefused(t *testing.T) {
	p, _ := newTestPrims(t)

	root := dbid.New(1, 1)
	code, err := p.DeleteEntity(context.Background(), dbid.New(1, 5), root, dbid.Id{})
	assert.Error(t, err)
	assert.Equal(t, "BAD_ENTITY_ID", code.String())
}

func TestDatabasePrims_DeleteEntity_CannotDeleteSelf(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "a rock")
	assert.NoError(t, err)

	_, err = p.DeleteEntity(ctx, id, id, dbid.Id{})
	assert.Error(t, err)
}

func TestDatabasePrims_DeleteEntity_OwnerSucceeds(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)

	_, err = p.DeleteEntity(ctx, owner, id, dbid.Id{})
	assert.NoError(t, err)
}

func TestDatabasePrims_DeleteEntity_NonOwnerRefused(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)
	other, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "bob")
	assert.NoError(t, err)

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)

	_, err = p.DeleteEntity(ctx, other, id, dbid.Id{})
	assert.Error(t, err)
}

func TestDatabasePrims_GetContents(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	room, err := p.CreateEntity(ctx, site, dbtype.TypeRoom, dbid.Default, "a room")
	assert.NoError(t, err)

	thing, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "a rock")
	assert.NoError(t, err)
	_ = thing

	ids, err := p.GetContents(ctx, site, room, primitives.ContentsFilter{AnyType: true})
	assert.NoError(t, err)
	assert.Empty(t, ids, "rock was never moved into room so it must not show up as contained by it")
}
