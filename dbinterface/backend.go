package dbinterface

import (
	"context"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// DbBackend is the persistence contract required of any storage layer
// (spec §6.1). Implementations live under internal/adapters/*; callers
// never hold a DbBackend directly, only through DatabaseAccess.
type DbBackend interface {
	// AllocateSite reserves and returns the next site id.
	AllocateSite(ctx context.Context) (uint32, error)

	// DeleteSite permanently removes every persisted entity belonging
	// to siteID. Callers invoke this only after a SiteCache has fully
	// drained.
	DeleteSite(ctx context.Context, siteID uint32) error

	// AllocateEntityID returns the next entity id within siteID,
	// monotone and never reused.
	AllocateEntityID(ctx context.Context, siteID uint32) (uint32, error)

	// ConstructEntity builds a brand-new, caller-owned Entity of typ,
	// bound to id, with the given owner and name. The returned Entity
	// has not yet been persisted.
	ConstructEntity(ctx context.Context, typ dbtype.EntityType, id dbid.Id, owner dbid.Id, name string) (*dbtype.Entity, error)

	// PersistEntity writes entity's current field state to the backend.
	// Implementations may use ChangedFieldNames for a partial write.
	PersistEntity(ctx context.Context, entity *dbtype.Entity) error

	// LoadEntity materialises a caller-owned Entity from persisted
	// state, or returns a dberrors NotFound error.
	LoadEntity(ctx context.Context, id dbid.Id) (*dbtype.Entity, error)

	// DeleteEntityPersistent removes id's persisted state. Called once
	// an entity has no live EntityRef.
	DeleteEntityPersistent(ctx context.Context, id dbid.Id) error

	// DeleteEntityMemory releases any backend-held resources associated
	// with entity that were acquired at construction time, without
	// touching persisted state. Paired with ConstructEntity when a
	// newly constructed entity is abandoned before ever being
	// persisted.
	DeleteEntityMemory(ctx context.Context, entity *dbtype.Entity) error

	// Find returns every id within site matching name under typ's
	// rules. exact requires a full match; otherwise the backend may
	// match by prefix or containment, per its own index.
	Find(ctx context.Context, site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error)
}
