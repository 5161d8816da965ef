package dbtype

import (
	"testing"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/stretchr/testify/assert"
)

func TestNewEntity_RejectsEmptyName(t *testing.T) {
	_, err := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "")
	assert.Error(t, err)
}

func TestEntity_NameGetSet(t *testing.T) {
	e, err := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a rock")
	assert.NoError(t, err)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetName(writer, "a shiny rock"))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	name, err := e.Name(reader)
	assert.NoError(t, err)
	assert.Equal(t, "a shiny rock", name)
}

func TestEntity_SetName_RejectsEmpty(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a rock")

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	defer writer.Release()

	err := e.SetName(writer, "")
	assert.True(t, dberrors.Is(err, dberrors.KindBadArguments))
}

func TestEntity_WrongTokenBindingFails(t *testing.T) {
	a, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a")
	b, _ := NewEntity(dbid.New(1, 6), TypeThing, dbid.New(1, 4), "b")

	writerForB := concurrency.AcquireWriter(b, b.LockIdentity())
	defer writerForB.Release()

	err := a.SetName(writerForB, "new name")
	assert.True(t, dberrors.Is(err, dberrors.KindLockError))
}

func TestEntity_SetFieldMarksDirtyAndRecordsChange(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a")
	e.ClearDirty()

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetNote(writer, "a note"))
	writer.Release()

	assert.True(t, e.IsDirty())
	assert.Contains(t, e.ChangedFieldNames(), "note")
}

func TestEntity_OwnerChangeRecordsReferenceDelta(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a")
	newOwner := dbid.New(1, 9)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	defer writer.Release()

	assert.NoError(t, e.SetOwner(writer, newOwner))
	assert.Len(t, e.referenceDeltas, 1)
	assert.True(t, e.referenceDeltas[0].Added.Equal(newOwner))
}

func TestEntity_BadEntityTypeForWrongKindField(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a")

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	_, err := e.ActionTargets(reader)
	assert.True(t, dberrors.Is(err, dberrors.KindBadEntityType))
}

func TestEntity_CloneWithNewIdentity(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeThing, dbid.New(1, 4), "a")

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetHome(writer, dbid.New(1, 3)))
	writer.Release()

	clone := e.CloneWithNewIdentity(dbid.New(1, 99))

	assert.True(t, clone.ID().Equal(dbid.New(1, 99)))
	assert.EqualValues(t, 1, clone.Version())
	assert.EqualValues(t, 1, clone.Instance())

	reader := concurrency.AcquireReader(clone, clone.LockIdentity())
	defer reader.Release()

	home, err := clone.Home(reader)
	assert.NoError(t, err)
	assert.True(t, home.Equal(dbid.New(1, 3)))
}

func TestEntity_ApplicationProperties(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 5), TypeContainerPropertyEntity, dbid.New(1, 4), "a")
	owner := dbid.New(1, 4)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	ap, err := e.EnsureApplicationProperty(writer, "mush", owner)
	assert.NoError(t, err)
	assert.NoError(t, ap.Directory().Set("score", NewInteger(10)))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	got, ok, err := e.ApplicationProperty(reader, "mush")
	assert.NoError(t, err)
	assert.True(t, ok)

	v, found, err := got.Directory().Get("score")
	assert.NoError(t, err)
	assert.True(t, found)

	i, _ := v.IntegerValue()
	assert.EqualValues(t, 10, i)
}

func TestEntity_GroupMembership(t *testing.T) {
	g, _ := NewEntity(dbid.New(1, 10), TypeGroup, dbid.New(1, 4), "staff")
	member := dbid.New(1, 20)

	writer := concurrency.AcquireWriter(g, g.LockIdentity())
	assert.NoError(t, g.AddGroupMember(writer, member))
	writer.Release()

	reader := concurrency.AcquireReader(g, g.LockIdentity())
	defer reader.Release()

	ok, err := g.IsGroupMember(reader, member)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestEntity_ProgramIncludesFirstLast(t *testing.T) {
	p, _ := NewEntity(dbid.New(1, 30), TypeProgram, dbid.New(1, 4), "prog")

	writer := concurrency.AcquireWriter(p, p.LockIdentity())
	assert.NoError(t, p.AddProgramInclude(writer, dbid.New(1, 5)))
	assert.NoError(t, p.AddProgramInclude(writer, dbid.New(1, 2)))
	writer.Release()

	reader := concurrency.AcquireReader(p, p.LockIdentity())
	defer reader.Release()

	first, err := p.FirstProgramInclude(reader)
	assert.NoError(t, err)
	assert.True(t, first.Equal(dbid.New(1, 2)))

	last, err := p.LastProgramInclude(reader)
	assert.NoError(t, err)
	assert.True(t, last.Equal(dbid.New(1, 5)))
}

func TestEntity_ActionContainedByRecordsReferenceDelta(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 20), TypeAction, dbid.New(1, 4), "a switch")
	container := dbid.New(1, 7)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetActionContainedBy(writer, container))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	got, err := e.ActionContainedBy(reader)
	assert.NoError(t, err)
	assert.True(t, got.Equal(container))
	assert.True(t, e.referenceDeltas[len(e.referenceDeltas)-1].Added.Equal(container))
}

func TestEntity_ActionMessages(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 20), TypeAction, dbid.New(1, 4), "a switch")

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetActionSuccessMessage(writer, "The switch clicks."))
	assert.NoError(t, e.SetActionFailMessage(writer, "Nothing happens."))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	success, err := e.ActionSuccessMessage(reader)
	assert.NoError(t, err)
	assert.Equal(t, "The switch clicks.", success)

	fail, err := e.ActionFailMessage(reader)
	assert.NoError(t, err)
	assert.Equal(t, "Nothing happens.", fail)
}

func TestEntity_VehicleController(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 21), TypeVehicle, dbid.New(1, 4), "a cart")
	pilot := dbid.New(1, 9)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetVehicleController(writer, pilot))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	got, err := e.VehicleController(reader)
	assert.NoError(t, err)
	assert.True(t, got.Equal(pilot))
	assert.True(t, e.referenceDeltas[len(e.referenceDeltas)-1].Added.Equal(pilot))
}

func TestEntity_ThingLock(t *testing.T) {
	e, _ := NewEntity(dbid.New(1, 22), TypeThing, dbid.New(1, 4), "a chest")
	lock := NewByID(dbid.New(1, 4), false)

	writer := concurrency.AcquireWriter(e, e.LockIdentity())
	assert.NoError(t, e.SetThingLock(writer, lock))
	writer.Release()

	reader := concurrency.AcquireReader(e, e.LockIdentity())
	defer reader.Release()

	got, err := e.ThingLock(reader)
	assert.NoError(t, err)
	assert.Equal(t, LockByID, got.Kind())
}

func TestEntity_ProgramFields(t *testing.T) {
	p, _ := NewEntity(dbid.New(1, 30), TypeProgram, dbid.New(1, 4), "prog")

	writer := concurrency.AcquireWriter(p, p.LockIdentity())
	assert.NoError(t, p.SetProgramLanguage(writer, "mpi"))
	assert.NoError(t, p.SetProgramRuntimeSeconds(writer, 4.5))
	assert.NoError(t, p.SetProgramRegistrationName(writer, "sys.echo"))
	writer.Release()

	reader := concurrency.AcquireReader(p, p.LockIdentity())
	defer reader.Release()

	lang, err := p.ProgramLanguage(reader)
	assert.NoError(t, err)
	assert.Equal(t, "mpi", lang)

	runtime, err := p.ProgramRuntimeSeconds(reader)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, runtime)

	regName, err := p.ProgramRegistrationName(reader)
	assert.NoError(t, err)
	assert.Equal(t, "sys.echo", regName)
}

func TestEntity_ProgramIncludes_EmptyReturnsDefault(t *testing.T) {
	p, _ := NewEntity(dbid.New(1, 30), TypeProgram, dbid.New(1, 4), "prog")

	reader := concurrency.AcquireReader(p, p.LockIdentity())
	defer reader.Release()

	first, err := p.FirstProgramInclude(reader)
	assert.NoError(t, err)
	assert.True(t, first.IsDefault())
}
