package dbinterface

import (
	"context"
	"sync"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// SiteCache is the per-site map from entity id to CachedEntity,
// protected by a single mutex (spec §4.8). It lazily loads entities from
// a DbBackend on a cache miss and exposes the explicit eviction hooks
// the core mandates; an implementation MAY layer an LRU on top of
// TryEvict, but the core itself never evicts on its own.
type SiteCache struct {
	mu            sync.Mutex
	siteID        uint32
	backend       DbBackend
	entities      map[dbid.Id]*CachedEntity
	deletePending bool
}

// NewSiteCache returns an empty cache for siteID backed by backend.
func NewSiteCache(siteID uint32, backend DbBackend) *SiteCache {
	return &SiteCache{
		siteID:   siteID,
		backend:  backend,
		entities: make(map[dbid.Id]*CachedEntity),
	}
}

// SiteID returns the site this cache holds entities for.
func (s *SiteCache) SiteID() uint32 { return s.siteID }

// Get returns a pinning EntityRef for id: a cache hit returns a new
// handle on the existing CachedEntity, a miss asks the backend to
// materialise the Entity and inserts it before returning a handle.
func (s *SiteCache) Get(ctx context.Context, id dbid.Id) (*EntityRef, error) {
	s.mu.Lock()

	if s.deletePending {
		s.mu.Unlock()
		return nil, dberrors.NotFound("site %d is pending deletion", s.siteID)
	}

	if cached, ok := s.entities[id]; ok {
		if cached.isDeletePending() {
			s.mu.Unlock()
			return nil, dberrors.NotFound("entity %s is pending deletion", id)
		}

		ref := cached.retain()
		s.mu.Unlock()

		return ref, nil
	}

	s.mu.Unlock()

	entity, err := s.backend.LoadEntity(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.insert(entity), nil
}

// Put inserts an already-constructed Entity (e.g. one fresh from
// DbBackend.ConstructEntity) into the cache and returns a pinning
// handle on it. Callers must not call Put twice for the same id.
func (s *SiteCache) Put(entity *dbtype.Entity) *EntityRef {
	return s.insert(entity)
}

func (s *SiteCache) insert(entity *dbtype.Entity) *EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached := newCachedEntity(entity)
	s.entities[entity.ID()] = cached

	return cached.retain()
}

// Lookup returns the CachedEntity for id without creating a new
// reference, or false if id is not currently cached. Used by callers
// (e.g. rediscache's eviction sweep) that need to inspect state without pinning.
func (s *SiteCache) Lookup(id dbid.Id) (*CachedEntity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.entities[id]

	return c, ok
}

// TryEvict drops id's cache entry iff its reference count is zero and
// it carries no unpersisted changes. It is a no-op otherwise.
func (s *SiteCache) TryEvict(id dbid.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.entities[id]
	if !ok {
		return
	}

	if cached.refs() == 0 && !cached.isDirty() {
		delete(s.entities, id)
	}
}

// DeleteFromCache unconditionally removes id's cache entry. The caller
// must ensure no EntityRef still pins it.
func (s *SiteCache) DeleteFromCache(id dbid.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entities, id)
}

// RequestDelete marks id for deletion: if nothing currently references
// it the entry is removed immediately and ok is true (the caller then
// issues DeleteEntityPersistent); otherwise the entry is flagged
// delete-pending and ok is false (OK_DELAYED), to be finished by
// DrainPendingDeletes once the last reference drops.
func (s *SiteCache) RequestDelete(id dbid.Id) (ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, found := s.entities[id]
	if !found {
		return true
	}

	if cached.refs() == 0 {
		delete(s.entities, id)
		return true
	}

	cached.markDeletePending()

	return false
}

// DrainPendingDeletes scans for entities marked delete-pending whose
// reference count has since dropped to zero, removes them from the
// cache, and returns their ids so the caller can issue
// DeleteEntityPersistent for each exactly once.
func (s *SiteCache) DrainPendingDeletes() []dbid.Id {
	s.mu.Lock()
	defer s.mu.Unlock()

	var drained []dbid.Id

	for id, cached := range s.entities {
		if cached.isDeletePending() && cached.refs() == 0 {
			drained = append(drained, id)
			delete(s.entities, id)
		}
	}

	return drained
}

// SetDeletePending marks the whole site for destruction: further Get
// calls fail with NotFound, and once IsAnythingReferenced reports false
// the caller tears the site down via the backend.
func (s *SiteCache) SetDeletePending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletePending = true
}

// DeletePending reports whether SetDeletePending has been called.
func (s *SiteCache) DeletePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deletePending
}

// IsAnythingReferenced scans every cached entity and reports whether any
// has a non-zero reference count.
func (s *SiteCache) IsAnythingReferenced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cached := range s.entities {
		if cached.refs() > 0 {
			return true
		}
	}

	return false
}

// DirtyEntities returns every currently cached Entity with unpersisted
// changes, for the commit driver (spec §4.9 commit_all).
func (s *SiteCache) DirtyEntities() []*dbtype.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dirty []*dbtype.Entity

	for _, cached := range s.entities {
		if cached.isDirty() {
			dirty = append(dirty, cached.entity)
		}
	}

	return dirty
}
