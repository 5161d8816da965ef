package primitives_test

import (
	"context"
	"testing"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/stretchr/testify/assert"
)

func TestDatabasePrims_SetAndGetApplicationProperty(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)
	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)

	assert.NoError(t, p.SetApplicationPropertyString(ctx, owner, id, "/myapp/greeting", "hello"))

	got, err := p.GetApplicationPropertyString(ctx, owner, id, "/myapp/greeting")
	assert.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestDatabasePrims_SetApplicationPropertyInteger(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)
	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)

	assert.NoError(t, p.SetApplicationPropertyInteger(ctx, owner, id, "/counters/hits", 42))

	got, err := p.GetApplicationPropertyInteger(ctx, owner, id, "/counters/hits")
	assert.NoError(t, err)
	assert.EqualValues(t, 42, got)
}

func TestDatabasePrims_GetApplicationProperty_MissingApp(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)
	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)

	_, err = p.GetApplicationPropertyString(ctx, owner, id, "/nosuchapp/key")
	assert.Error(t, err)
}

func TestDatabasePrims_SetApplicationProperty_StrangerNeedsWriteFlag(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)
	stranger, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "bob")
	assert.NoError(t, err)

	id, err := p.CreateEntity(ctx, site, dbtype.TypeThing, owner, "a rock")
	assert.NoError(t, err)
	assert.NoError(t, p.SetApplicationPropertyString(ctx, owner, id, "/myapp/greeting", "hello"))

	err = p.SetApplicationPropertyString(ctx, stranger, id, "/myapp/greeting", "overwritten")
	assert.Error(t, err, "a non-owner without the application's write flag must be refused")

	sec, err := p.GetApplicationSecurity(ctx, owner, id, "myapp")
	assert.NoError(t, err)
	assert.NoError(t, sec.SetOtherFlags(dbtype.FlagRead|dbtype.FlagWrite))
	assert.NoError(t, p.SetApplicationSecurity(ctx, owner, id, "myapp", sec))

	assert.NoError(t, p.SetApplicationPropertyString(ctx, stranger, id, "/myapp/greeting", "overwritten"))
}

func TestDatabasePrims_BadPropertyPath(t *testing.T) {
	p, site := newTestPrims(t)
	ctx := context.Background()

	owner, err := p.CreateEntity(ctx, site, dbtype.TypeThing, dbid.Default, "alice")
	assert.NoError(t, err)

	_, err = p.GetApplicationPropertyString(ctx, owner, owner, "noleadingslash")
	assert.Error(t, err)
}
