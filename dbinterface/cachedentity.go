package dbinterface

import (
	"sync"

	"github.com/mutgos/dbcore/dbtype"
)

// CachedEntity owns one loaded Entity and tracks how many live EntityRef
// handles pin it in cache (spec §4.7). The cache must never drop or
// delete an entity while its count is non-zero.
type CachedEntity struct {
	mu            sync.Mutex
	entity        *dbtype.Entity
	refCount      int
	deletePending bool
}

// newCachedEntity wraps entity with a zero reference count.
func newCachedEntity(entity *dbtype.Entity) *CachedEntity {
	return &CachedEntity{entity: entity}
}

// Entity returns the wrapped Entity. Safe to call from any EntityRef
// holder; the Entity's own reader/writer tokens guard field access.
func (c *CachedEntity) Entity() *dbtype.Entity {
	return c.entity
}

func (c *CachedEntity) retain() *EntityRef {
	c.mu.Lock()
	c.refCount++
	c.mu.Unlock()

	return &EntityRef{cached: c}
}

func (c *CachedEntity) release() {
	c.mu.Lock()
	c.refCount--
	c.mu.Unlock()
}

func (c *CachedEntity) refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.refCount
}

func (c *CachedEntity) isDirty() bool {
	return c.entity.IsDirty()
}

func (c *CachedEntity) markDeletePending() {
	c.mu.Lock()
	c.deletePending = true
	c.mu.Unlock()
}

func (c *CachedEntity) isDeletePending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deletePending
}

// EntityRef is a shared, reference-counted handle pinning a CachedEntity
// in cache (spec §4.7). Construction increments the count; Release
// decrements it. Weak references (e.g. a container's contained_by field)
// store a bare Id instead of an EntityRef and are not counted.
type EntityRef struct {
	cached   *CachedEntity
	released bool
}

// Entity returns the pinned Entity. Panics if called after Release,
// which signals a use-after-release bug in the caller.
func (r *EntityRef) Entity() *dbtype.Entity {
	if r.released {
		panic("dbinterface: EntityRef used after Release")
	}

	return r.cached.entity
}

// Release drops this handle's pin on the underlying entity. Release is
// idempotent; calling it more than once is a no-op.
func (r *EntityRef) Release() {
	if r.released {
		return
	}

	r.released = true
	r.cached.release()
}
