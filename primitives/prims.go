// Package primitives implements DatabasePrims, the security-checked
// facade clients actually call (spec §4.12): entity validity/type
// queries, containment, creation/deletion, security getters/setters,
// typed application-property access, action invocation checks, and the
// name-matching pipeline (§4.13).
package primitives

import (
	"context"
	"fmt"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbaccess"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/mutgos/dbcore/mlog"
)

// DatabasePrims wraps a DatabaseAccess with the security checks spec
// §4.6 requires of every externally visible operation.
type DatabasePrims struct {
	access *dbaccess.DatabaseAccess
	log    mlog.Logger
	online OnlinePlayerProvider
}

// New returns a DatabasePrims backed by access.
func New(access *dbaccess.DatabaseAccess, log mlog.Logger) *DatabasePrims {
	if log == nil {
		log = &mlog.NoneLogger{}
	}

	return &DatabasePrims{access: access, log: log}
}

// withReader fetches id, acquires a reader token, runs fn, and releases
// both regardless of outcome.
func (p *DatabasePrims) withReader(ctx context.Context, id dbid.Id, fn func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error) error {
	ref, err := p.access.GetEntity(ctx, id)
	if err != nil {
		return err
	}
	defer ref.Release()

	e := ref.Entity()
	tok := concurrency.AcquireReader(e, e.LockIdentity())
	defer tok.Release()

	return fn(e, tok)
}

// withWriter fetches id, acquires a writer token, runs fn, and releases
// both regardless of outcome.
func (p *DatabasePrims) withWriter(ctx context.Context, id dbid.Id, fn func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error) error {
	ref, err := p.access.GetEntity(ctx, id)
	if err != nil {
		return err
	}
	defer ref.Release()

	e := ref.Entity()
	tok := concurrency.AcquireWriter(e, e.LockIdentity())
	defer tok.Release()

	return fn(e, tok)
}

// IsEntityValid reports whether id resolves to an existing entity.
func (p *DatabasePrims) IsEntityValid(ctx context.Context, id dbid.Id) bool {
	if id.IsDefault() {
		return false
	}

	ref, err := p.access.GetEntity(ctx, id)
	if err != nil {
		return false
	}

	ref.Release()

	return true
}

// GetEntityType returns id's EntityType.
func (p *DatabasePrims) GetEntityType(ctx context.Context, id dbid.Id) (dbtype.EntityType, error) {
	ref, err := p.access.GetEntity(ctx, id)
	if err != nil {
		return 0, err
	}
	defer ref.Release()

	return ref.Entity().Type(), nil
}

// EntityToString renders id's diagnostic one-line summary.
func (p *DatabasePrims) EntityToString(ctx context.Context, id dbid.Id) (string, error) {
	ref, err := p.access.GetEntity(ctx, id)
	if err != nil {
		return "", err
	}
	defer ref.Release()

	return ref.Entity().ToString(), nil
}

// GetEntityLocation returns the containing parent of a
// ContainerPropertyEntity-derived id (its `contained_by` field).
func (p *DatabasePrims) GetEntityLocation(ctx context.Context, id dbid.Id) (dbid.Id, error) {
	var location dbid.Id

	err := p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		loc, err := e.ContainedBy(tok)
		if err != nil {
			return err
		}

		location = loc

		return nil
	})

	return location, err
}

// ContentsFilter narrows GetContents to entities whose type matches, or
// accepts every containable type when AnyType is set (Type is then ignored).
type ContentsFilter struct {
	Type    dbtype.EntityType
	AnyType bool
}

// GetContents returns the ids of every entity in site whose
// `contained_by` is container, matching filter. The core has no
// reverse-containment index (spec leaves this a backend concern, §6.1
// find); this walks the backend's name index is not applicable here, so
// callers needing this at scale should maintain their own index via the
// change-notification stream (internal/adapters/notifybus). For small
// sites, Find with an empty name is a reasonable stand-in and is what
// this implementation uses.
func (p *DatabasePrims) GetContents(ctx context.Context, site uint32, container dbid.Id, filter ContentsFilter) ([]dbid.Id, error) {
	var candidateTypes []dbtype.EntityType
	if filter.AnyType {
		candidateTypes = allContainableTypes
	} else {
		candidateTypes = []dbtype.EntityType{filter.Type}
	}

	var out []dbid.Id

	for _, typ := range candidateTypes {
		ids, err := p.access.Find(ctx, site, typ, "", false)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			loc, err := p.GetEntityLocation(ctx, id)
			if err != nil {
				continue
			}

			if loc.Equal(container) {
				out = append(out, id)
			}
		}
	}

	return out, nil
}

var allContainableTypes = []dbtype.EntityType{
	dbtype.TypeContainerPropertyEntity,
	dbtype.TypeThing,
	dbtype.TypePuppet,
	dbtype.TypeVehicle,
	dbtype.TypePlayer,
	dbtype.TypeGuest,
	dbtype.TypeAction,
	dbtype.TypeExit,
	dbtype.TypeRoom,
	dbtype.TypeRegion,
	dbtype.TypeGroup,
	dbtype.TypeProgram,
}

// CreateEntity creates a new entity of type typ through
// DatabaseAccess.NewEntity, passing requester as its owner. It makes no
// capability or security check on requester; its only refusal is for
// Capability entities, which can never be created through this path.
func (p *DatabasePrims) CreateEntity(ctx context.Context, site uint32, typ dbtype.EntityType, requester dbid.Id, name string) (dbid.Id, error) {
	if typ == dbtype.TypeCapability {
		return dbid.Id{}, dberrors.SecurityViolation("capability entities cannot be created by clients")
	}

	ref, code, err := p.access.NewEntity(ctx, typ, site, requester, name)
	if err != nil {
		return dbid.Id{}, fmt.Errorf("create entity (%s): %w", code, err)
	}
	defer ref.Release()

	return ref.Entity().ID(), nil
}

// isReservedEntityID reports whether id's entity portion is one of the
// four per-site reserved ids that can never be deleted (spec §6.2):
// 1 Root Region, 2 System user, 3 Default Room, 4 Administrator player.
func isReservedEntityID(id dbid.Id) bool {
	return id.EntityID() >= 1 && id.EntityID() <= 4
}

// DeleteEntity deletes id, enforcing the policy exceptions of spec §4.6
// and §6.2: reserved ids, Capabilities, the requester's own id, and
// currentContainer (the requester's current container) are all refused
// with Impossible. There is no check for a running program. Security
// (owner/admin) is checked last, after
// the cheaper structural exceptions above have all passed.
func (p *DatabasePrims) DeleteEntity(ctx context.Context, requester, id dbid.Id, currentContainer dbid.Id) (dbinterface.ResultCode, error) {
	if isReservedEntityID(id) {
		return dbinterface.BadEntityID, dberrors.Impossible("entity %s is reserved and cannot be deleted", id)
	}

	if requester.Equal(id) {
		return dbinterface.BadEntityID, dberrors.Impossible("an entity cannot delete itself")
	}

	if !currentContainer.IsDefault() && currentContainer.Equal(id) {
		return dbinterface.BadEntityID, dberrors.Impossible("cannot delete the requester's current container")
	}

	typ, err := p.GetEntityType(ctx, id)
	if err != nil {
		return dbinterface.BadEntityID, err
	}

	if typ == dbtype.TypeCapability {
		return dbinterface.BadEntityID, dberrors.Impossible("capability entities cannot be deleted")
	}

	if err := p.checkDeletePermission(ctx, requester, id); err != nil {
		return dbinterface.ResultError, err
	}

	return p.access.DeleteEntity(ctx, id)
}

func (p *DatabasePrims) checkDeletePermission(ctx context.Context, requester, id dbid.Id) error {
	return p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		owner, err := e.Owner(tok)
		if err != nil {
			return err
		}

		if owner.Equal(requester) {
			return nil
		}

		sec, err := e.Security(tok)
		if err != nil {
			return err
		}

		for _, admin := range sec.AdminIDs() {
			if admin.Equal(requester) {
				return nil
			}
		}

		return dberrors.SecurityViolation("%s is not authorized to delete %s", requester, id)
	})
}
