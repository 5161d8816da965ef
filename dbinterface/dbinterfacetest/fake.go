// Package dbinterfacetest provides an in-memory DbBackend fake for tests
// of dbaccess, primitives, and dbdump that need a persistence layer
// without standing up postgres or mongo.
package dbinterfacetest

import (
	"context"
	"strings"
	"sync"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// Backend is a minimal, map-backed DbBackend. It is safe for concurrent
// use and records every call it receives for assertions.
type Backend struct {
	mu sync.Mutex

	nextSite     uint32
	nextEntity   map[uint32]uint32
	stored       map[dbid.Id]*dbtype.Entity
	deletedSites []uint32

	PersistCalls []dbid.Id
	LoadCalls    []dbid.Id
	DeleteCalls  []dbid.Id
	FindFunc     func(site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error)
}

// New returns an empty fake backend.
func New() *Backend {
	return &Backend{
		nextEntity: make(map[uint32]uint32),
		stored:     make(map[dbid.Id]*dbtype.Entity),
	}
}

// AllocateSite returns the next monotone site id, starting at 1 (site 0
// is reserved, spec §3.1).
func (b *Backend) AllocateSite(ctx context.Context) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSite++

	return b.nextSite, nil
}

// DeleteSite records siteID as torn down and drops every stored entity
// belonging to it.
func (b *Backend) DeleteSite(ctx context.Context, siteID uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.deletedSites = append(b.deletedSites, siteID)

	for id := range b.stored {
		if id.SiteID() == siteID {
			delete(b.stored, id)
		}
	}

	return nil
}

// DeletedSites returns every site id passed to DeleteSite, in call
// order.
func (b *Backend) DeletedSites() []uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]uint32(nil), b.deletedSites...)
}

// AllocateEntityID returns the next monotone entity id within siteID,
// starting at 5 so callers can freely use the four reserved ids (spec
// §6.2) in test fixtures without colliding with allocation.
func (b *Backend) AllocateEntityID(ctx context.Context, siteID uint32) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nextEntity[siteID] == 0 {
		b.nextEntity[siteID] = 4
	}

	b.nextEntity[siteID]++

	return b.nextEntity[siteID], nil
}

// ConstructEntity builds a fresh, unstored Entity via dbtype.NewEntity.
func (b *Backend) ConstructEntity(ctx context.Context, typ dbtype.EntityType, id dbid.Id, owner dbid.Id, name string) (*dbtype.Entity, error) {
	return dbtype.NewEntity(id, typ, owner, name)
}

// PersistEntity stores a snapshot of entity, keyed by id.
func (b *Backend) PersistEntity(ctx context.Context, entity *dbtype.Entity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.PersistCalls = append(b.PersistCalls, entity.ID())
	b.stored[entity.ID()] = entity

	return nil
}

// LoadEntity returns the stored entity for id, or a NotFound error.
func (b *Backend) LoadEntity(ctx context.Context, id dbid.Id) (*dbtype.Entity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.LoadCalls = append(b.LoadCalls, id)

	e, ok := b.stored[id]
	if !ok {
		return nil, dberrors.NotFound("entity %s not found", id)
	}

	return e, nil
}

// DeleteEntityPersistent removes id's stored snapshot and records the
// call for assertions (spec §8 scenario 3 expects exactly one call per
// deleted id).
func (b *Backend) DeleteEntityPersistent(ctx context.Context, id dbid.Id) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.DeleteCalls = append(b.DeleteCalls, id)
	delete(b.stored, id)

	return nil
}

// DeleteEntityMemory is a no-op for the fake: it holds no
// construction-time resources to release.
func (b *Backend) DeleteEntityMemory(ctx context.Context, entity *dbtype.Entity) error {
	return nil
}

// Find delegates to FindFunc if set, otherwise does a case-insensitive
// linear scan of stored entities, matching name exactly or by substring
// depending on exact. An empty name matches every entity of typ.
func (b *Backend) Find(ctx context.Context, site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error) {
	if b.FindFunc != nil {
		return b.FindFunc(site, typ, name, exact)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	want := strings.ToLower(name)

	var out []dbid.Id

	for id, e := range b.stored {
		if id.SiteID() != site || e.Type() != typ {
			continue
		}

		if want != "" {
			tok := concurrency.AcquireReader(e, e.LockIdentity())
			entityName, err := e.Name(tok)
			tok.Release()

			if err != nil {
				continue
			}

			got := strings.ToLower(entityName)

			if exact && got != want {
				continue
			}

			if !exact && !strings.Contains(got, want) {
				continue
			}
		}

		out = append(out, id)
	}

	return out, nil
}

// Put seeds the fake with an already-built entity, bypassing
// ConstructEntity/AllocateEntityID — useful for test fixtures that need
// specific, known ids (e.g. the reserved ids, spec §6.2).
func (b *Backend) Put(entity *dbtype.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stored[entity.ID()] = entity
}
