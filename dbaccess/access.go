// Package dbaccess implements DatabaseAccess, the process-wide facade
// in front of the per-site caches and the backend (spec §4.9): site
// lifecycle, entity id allocation, the commit/eviction driver, and
// cross-site find.
package dbaccess

import (
	"context"
	"sync"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/mutgos/dbcore/mlog"
)

// Reserved entity ids within every site (spec §6.2): these four are
// materialised by NewSite and can never be deleted.
const (
	reservedRootRegionID    uint32 = 1
	reservedSystemUserID    uint32 = 2
	reservedDefaultRoomID   uint32 = 3
	reservedAdministratorID uint32 = 4
)

type siteRecord struct {
	cache       *dbinterface.SiteCache
	name        string
	description string
}

// Notifier publishes the per-entity change-notification stream a commit
// produces (spec §5: "subscribers are notified outside the writer lock
// to avoid reentrancy"). CommitAll calls it once per persisted entity,
// after the backend write succeeds and before the dirty bit clears, so a
// notifier failure never masks a successful persist. A nil Notifier (the
// default) makes CommitAll a no-op on this front.
type Notifier interface {
	NotifyEntityChanged(ctx context.Context, id dbid.Id, changedFields []string) error
}

// DatabaseAccess synchronises the site list with its own lock and
// routes entity-level operations to the owning SiteCache (spec §5:
// "the facade synchronises site list updates with its own internal
// lock").
type DatabaseAccess struct {
	mu       sync.Mutex
	backend  dbinterface.DbBackend
	sites    map[uint32]*siteRecord
	log      mlog.Logger
	notifier Notifier
}

// New constructs a DatabaseAccess over backend. Construction is the
// only lifecycle step this facade needs; there is no separate teardown
// since it owns no resources the backend doesn't already manage.
func New(backend dbinterface.DbBackend, log mlog.Logger) *DatabaseAccess {
	if log == nil {
		log = &mlog.NoneLogger{}
	}

	return &DatabaseAccess{
		backend: backend,
		sites:   make(map[uint32]*siteRecord),
		log:     log,
	}
}

// SetNotifier installs the Notifier CommitAll publishes to. Passing nil
// restores the default no-op behavior.
func (a *DatabaseAccess) SetNotifier(notifier Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.notifier = notifier
}

func (a *DatabaseAccess) siteRecord(siteID uint32) (*siteRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.sites[siteID]

	return rec, ok
}

// NewSite allocates the next site id from the backend, registers an
// empty SiteCache for it, and records name as its display name.
func (a *DatabaseAccess) NewSite(ctx context.Context, name string) (uint32, error) {
	ctx = withNewCorrelationID(ctx)

	siteID, err := a.backend.AllocateSite(ctx)
	if err != nil {
		return 0, dberrors.DatabaseError(err, "allocate site")
	}

	rec := &siteRecord{cache: dbinterface.NewSiteCache(siteID, a.backend), name: name}

	a.mu.Lock()
	a.sites[siteID] = rec
	a.mu.Unlock()

	if err := a.seedReservedEntities(ctx, siteID, rec); err != nil {
		return 0, err
	}

	a.log.Infof("new site %d %q", siteID, name)

	return siteID, nil
}

// seedReservedEntities materialises the four ids every site reserves
// (spec §6.2) before anything else can be created in it: Root Region,
// System user, Default Room, and the Administrator player. Root Region
// and Default Room are owned by System user, and Default Room sits
// inside Root Region so every container chain has somewhere to
// terminate.
func (a *DatabaseAccess) seedReservedEntities(ctx context.Context, siteID uint32, rec *siteRecord) error {
	systemID := dbid.New(siteID, reservedSystemUserID)
	adminID := dbid.New(siteID, reservedAdministratorID)
	rootID := dbid.New(siteID, reservedRootRegionID)
	roomID := dbid.New(siteID, reservedDefaultRoomID)

	seeds := []struct {
		id    dbid.Id
		typ   dbtype.EntityType
		owner dbid.Id
		name  string
	}{
		{systemID, dbtype.TypePlayer, systemID, "System"},
		{adminID, dbtype.TypePlayer, systemID, "Administrator"},
		{rootID, dbtype.TypeRegion, systemID, "Root Region"},
		{roomID, dbtype.TypeRoom, systemID, "Default Room"},
	}

	entities := make(map[dbid.Id]*dbtype.Entity, len(seeds))

	for _, seed := range seeds {
		entity, err := a.backend.ConstructEntity(ctx, seed.typ, seed.id, seed.owner, seed.name)
		if err != nil {
			return dberrors.DatabaseError(err, "construct reserved entity %s", seed.id)
		}

		entities[seed.id] = entity
		rec.cache.Put(entity).Release()
	}

	room := entities[roomID]
	tok := concurrency.AcquireWriter(room, room.LockIdentity())
	err := room.SetContainedBy(tok, rootID)
	tok.Release()

	if err != nil {
		return dberrors.DatabaseError(err, "seat default room in root region")
	}

	return nil
}

// GetAllSiteIDs returns every currently registered site id, in no
// particular order.
func (a *DatabaseAccess) GetAllSiteIDs() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]uint32, 0, len(a.sites))
	for id := range a.sites {
		ids = append(ids, id)
	}

	return ids
}

// SetSiteName updates site's display name.
func (a *DatabaseAccess) SetSiteName(siteID uint32, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.sites[siteID]
	if !ok {
		return dberrors.BadArguments("unknown site %d", siteID)
	}

	rec.name = name

	return nil
}

// SetSiteDescription updates site's description.
func (a *DatabaseAccess) SetSiteDescription(siteID uint32, description string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.sites[siteID]
	if !ok {
		return dberrors.BadArguments("unknown site %d", siteID)
	}

	rec.description = description

	return nil
}

// DeleteSite marks siteID for destruction and, if nothing currently
// references any of its cached entities, tears it down immediately.
// Otherwise it returns OKDelayed and the caller (or a later
// ReapPendingSites call) must finish the teardown once references
// drain.
func (a *DatabaseAccess) DeleteSite(ctx context.Context, siteID uint32) (dbinterface.ResultCode, error) {
	ctx = withNewCorrelationID(ctx)

	rec, ok := a.siteRecord(siteID)
	if !ok {
		return dbinterface.BadSiteID, dberrors.BadArguments("unknown site %d", siteID)
	}

	rec.cache.SetDeletePending()

	if rec.cache.IsAnythingReferenced() {
		return dbinterface.OKDelayed, nil
	}

	if err := a.backend.DeleteSite(ctx, siteID); err != nil {
		return dbinterface.DatabaseError, dberrors.DatabaseError(err, "delete site %d", siteID)
	}

	a.mu.Lock()
	delete(a.sites, siteID)
	a.mu.Unlock()

	return dbinterface.OK, nil
}

// ReapPendingSites finishes the teardown of any site marked for
// deletion whose last reference has since dropped. It is the caller's
// responsibility to invoke this periodically (e.g. alongside
// CommitAll); the core's eviction policy is explicit-only (spec §4.8).
func (a *DatabaseAccess) ReapPendingSites(ctx context.Context) error {
	ctx = withNewCorrelationID(ctx)

	a.mu.Lock()
	ids := make([]uint32, 0)

	for id, rec := range a.sites {
		if rec.cache.DeletePending() && !rec.cache.IsAnythingReferenced() {
			ids = append(ids, id)
		}
	}
	a.mu.Unlock()

	for _, id := range ids {
		if err := a.backend.DeleteSite(ctx, id); err != nil {
			return dberrors.DatabaseError(err, "delete site %d", id)
		}

		a.mu.Lock()
		delete(a.sites, id)
		a.mu.Unlock()
	}

	return nil
}

// NewEntity allocates the next entity id within site, constructs an
// entity of typ via the backend, inserts it into the site's cache, and
// returns a pinning reference. A default owner means "self-owned",
// matching the temporary self-ownership new entities carry until a
// caller assigns a real owner (spec §3.2 Lifecycle).
func (a *DatabaseAccess) NewEntity(ctx context.Context, typ dbtype.EntityType, site uint32, owner dbid.Id, name string) (*dbinterface.EntityRef, dbinterface.ResultCode, error) {
	ctx = withNewCorrelationID(ctx)

	if name == "" {
		return nil, dbinterface.BadName, dberrors.BadArguments("entity name must not be empty")
	}

	rec, ok := a.siteRecord(site)
	if !ok {
		return nil, dbinterface.BadSiteID, dberrors.BadArguments("unknown site %d", site)
	}

	entityID, err := a.backend.AllocateEntityID(ctx, site)
	if err != nil {
		return nil, dbinterface.DatabaseError, dberrors.DatabaseError(err, "allocate entity id")
	}

	id := dbid.New(site, entityID)
	if owner.IsDefault() {
		owner = id
	}

	entity, err := a.backend.ConstructEntity(ctx, typ, id, owner, name)
	if err != nil {
		return nil, dbinterface.BadEntityType, dberrors.BadEntityType("construct entity: %v", err)
	}

	ref := rec.cache.Put(entity)

	a.log.Infof("new entity %s (%s) in site %d", id, typ, site)

	return ref, dbinterface.OK, nil
}

// GetEntity returns a pinning reference to id via its site's cache,
// loading from the backend on a cache miss.
func (a *DatabaseAccess) GetEntity(ctx context.Context, id dbid.Id) (*dbinterface.EntityRef, error) {
	ctx = withNewCorrelationID(ctx)

	rec, ok := a.siteRecord(id.SiteID())
	if !ok {
		return nil, dberrors.BadArguments("unknown site %d", id.SiteID())
	}

	return rec.cache.Get(ctx, id)
}

// DeleteEntity requests deletion of id. If nothing else currently
// references it, the backend's persisted copy is removed immediately
// and OK is returned; otherwise deletion is queued and OKDelayed is
// returned, to be finished once the last reference drops (see
// ReapPendingSites's entity-level counterpart, ReapPendingDeletes).
func (a *DatabaseAccess) DeleteEntity(ctx context.Context, id dbid.Id) (dbinterface.ResultCode, error) {
	ctx = withNewCorrelationID(ctx)

	rec, ok := a.siteRecord(id.SiteID())
	if !ok {
		return dbinterface.BadEntityID, dberrors.BadArguments("unknown site %d", id.SiteID())
	}

	probe, err := rec.cache.Get(ctx, id)
	if err != nil {
		return dbinterface.BadEntityID, dberrors.NotFound("entity %s not found", id)
	}

	probe.Release()

	if rec.cache.RequestDelete(id) {
		if err := a.backend.DeleteEntityPersistent(ctx, id); err != nil {
			return dbinterface.DatabaseError, dberrors.DatabaseError(err, "delete entity %s", id)
		}

		return dbinterface.OK, nil
	}

	return dbinterface.OKDelayed, nil
}

// ReapPendingDeletes finishes any delete-pending entities in every site
// whose last reference has since dropped, issuing exactly one
// DeleteEntityPersistent call per id.
func (a *DatabaseAccess) ReapPendingDeletes(ctx context.Context) error {
	ctx = withNewCorrelationID(ctx)

	a.mu.Lock()
	recs := make([]*siteRecord, 0, len(a.sites))
	for _, rec := range a.sites {
		recs = append(recs, rec)
	}
	a.mu.Unlock()

	for _, rec := range recs {
		for _, id := range rec.cache.DrainPendingDeletes() {
			if err := a.backend.DeleteEntityPersistent(ctx, id); err != nil {
				return dberrors.DatabaseError(err, "delete entity %s", id)
			}
		}
	}

	return nil
}

// Find returns every id in site matching name under typ's rules,
// delegating to the backend's name index.
func (a *DatabaseAccess) Find(ctx context.Context, site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error) {
	ctx = withNewCorrelationID(ctx)

	if _, ok := a.siteRecord(site); !ok {
		return nil, dberrors.BadArguments("unknown site %d", site)
	}

	return a.backend.Find(ctx, site, typ, name, exact)
}

// CommitAll walks the dirty entries of every site cache, persists them
// via the backend, clears their dirty bits, and reaps any pending
// deletes and site teardowns that have since drained.
func (a *DatabaseAccess) CommitAll(ctx context.Context) error {
	ctx = withNewCorrelationID(ctx)

	a.mu.Lock()
	recs := make([]*siteRecord, 0, len(a.sites))
	for _, rec := range a.sites {
		recs = append(recs, rec)
	}
	a.mu.Unlock()

	a.mu.Lock()
	notifier := a.notifier
	a.mu.Unlock()

	for _, rec := range recs {
		for _, entity := range rec.cache.DirtyEntities() {
			if err := a.backend.PersistEntity(ctx, entity); err != nil {
				return dberrors.DatabaseError(err, "persist entity %s", entity.ID())
			}

			if notifier != nil {
				changed := entity.ChangedFieldNames()
				if err := notifier.NotifyEntityChanged(ctx, entity.ID(), changed); err != nil {
					a.log.Warnf("notify entity %s changed: %s", entity.ID(), err)
				}
			}

			entity.ClearDirty()
		}
	}

	if err := a.ReapPendingDeletes(ctx); err != nil {
		return err
	}

	return a.ReapPendingSites(ctx)
}
