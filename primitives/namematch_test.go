package primitives_test

import (
	"context"
	"testing"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/stretchr/testify/assert"
)

func TestDatabasePrims_MatchNameToID_SpecialTokens(t *testing.T) {
	p, access, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	requester, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "alice")
	assert.NoError(t, err)
	room, err := p.CreateEntity(ctx, site, dbtype.TypeRoom, dbid.Default, "a room")
	assert.NoError(t, err)

	ref, err := access.GetEntity(ctx, requester)
	assert.NoError(t, err)
	writer := concurrency.AcquireWriter(ref.Entity(), ref.Entity().LockIdentity())
	assert.NoError(t, ref.Entity().SetContainedBy(writer, room))
	writer.Release()
	ref.Release()

	id, err := p.MatchNameToID(ctx, site, requester, "me", false, dbtype.TypePlayer)
	assert.NoError(t, err)
	assert.True(t, id.Equal(requester))

	id, err = p.MatchNameToID(ctx, site, requester, "here", false, dbtype.TypeRoom)
	assert.NoError(t, err)
	assert.True(t, id.Equal(room))
}

func TestDatabasePrims_MatchNameToID_PlayerExact(t *testing.T) {
	p, access, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	alice, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "Alice")
	assert.NoError(t, err)
	assert.NoError(t, access.CommitAll(ctx))

	id, err := p.MatchNameToID(ctx, site, alice, "alice", false, dbtype.TypePlayer)
	assert.NoError(t, err)
	assert.True(t, id.Equal(alice))
}

func TestDatabasePrims_MatchNameToID_PlayerNotFound(t *testing.T) {
	p, access, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	requester, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "alice")
	assert.NoError(t, err)
	assert.NoError(t, access.CommitAll(ctx))

	_, err = p.MatchNameToID(ctx, site, requester, "nobody", false, dbtype.TypePlayer)
	assert.Error(t, err)
}

func TestDatabasePrims_MatchNameToID_ActionAliasExact(t *testing.T) {
	p, access, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	requester, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "alice")
	assert.NoError(t, err)

	exit, err := p.CreateEntity(ctx, site, dbtype.TypeExit, dbid.Default, "Exit to north")
	assert.NoError(t, err)

	ref, err := access.GetEntity(ctx, exit)
	assert.NoError(t, err)
	writer := concurrency.AcquireWriter(ref.Entity(), ref.Entity().LockIdentity())
	assert.NoError(t, ref.Entity().SetContainedBy(writer, requester))
	assert.NoError(t, ref.Entity().SetActionCommands(writer, []string{"go", "move"}))
	writer.Release()
	ref.Release()
	assert.NoError(t, access.CommitAll(ctx))

	id, err := p.MatchNameToID(ctx, site, requester, "go", false, dbtype.TypeThing)
	assert.NoError(t, err)
	assert.True(t, id.Equal(exit))
}

func TestDatabasePrims_MatchNameToID_ActionAliasAmbiguous(t *testing.T) {
	p, access, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	requester, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "alice")
	assert.NoError(t, err)

	first, err := p.CreateEntity(ctx, site, dbtype.TypeExit, dbid.Default, "Exit to north")
	assert.NoError(t, err)
	second, err := p.CreateEntity(ctx, site, dbtype.TypeExit, dbid.Default, "Exit to south")
	assert.NoError(t, err)

	for _, id := range []dbid.Id{first, second} {
		ref, err := access.GetEntity(ctx, id)
		assert.NoError(t, err)
		writer := concurrency.AcquireWriter(ref.Entity(), ref.Entity().LockIdentity())
		assert.NoError(t, ref.Entity().SetContainedBy(writer, requester))
		assert.NoError(t, ref.Entity().SetActionCommands(writer, []string{"go"}))
		writer.Release()
		ref.Release()
	}
	assert.NoError(t, access.CommitAll(ctx))

	_, err = p.MatchNameToID(ctx, site, requester, "go", false, dbtype.TypeThing)
	assert.Error(t, err)
}

func TestDatabasePrims_MatchNameToID_OnlineScanFallback(t *testing.T) {
	p, _, site := newTestPrimsWithAccess(t)
	ctx := context.Background()

	requester, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "alice")
	assert.NoError(t, err)
	bob, err := p.CreateEntity(ctx, site, dbtype.TypePlayer, dbid.Default, "Bobby")
	assert.NoError(t, err)

	p.SetOnlinePlayerProvider(fakeOnline{bob})

	id, err := p.MatchNameToID(ctx, site, requester, "bob", false, dbtype.TypePlayer)
	assert.NoError(t, err)
	assert.True(t, id.Equal(bob))
}

type fakeOnline struct {
	id dbid.Id
}

func (f fakeOnline) OnlinePlayers() []dbid.Id {
	return []dbid.Id{f.id}
}

func TestDatabasePrims_ConvertStringToID(t *testing.T) {
	p, _ := newTestPrims(t)

	id, err := p.ConvertStringToID("#1-5", 1)
	assert.NoError(t, err)
	assert.True(t, id.Equal(dbid.New(1, 5)))
}

func TestDatabasePrims_ConvertIDToName(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "a rock")
	assert.NoError(t, err)

	name, err := p.ConvertIDToName(ctx, id)
	assert.NoError(t, err)
	assert.Equal(t, "a rock", name)
}
