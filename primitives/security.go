package primitives

import (
	"context"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// isSecurityAdmin reports whether requester is owner or listed as an
// admin in sec — the gate shared by every security-mutating operation in
// spec §4.6's table ("Set field: owner/admin, or write").
func isSecurityAdmin(sec dbtype.Security, owner, requester dbid.Id) bool {
	if owner.Equal(requester) {
		return true
	}

	for _, admin := range sec.AdminIDs() {
		if admin.Equal(requester) {
			return true
		}
	}

	return false
}

// GetEntitySecurity returns id's Security record. Owner/admin always see
// it; everyone else additionally needs the `read` flag.
func (p *DatabasePrims) GetEntitySecurity(ctx context.Context, requester, id dbid.Id) (dbtype.Security, error) {
	var out dbtype.Security

	err := p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		sec, err := e.Security(tok)
		if err != nil {
			return err
		}

		owner, err := e.Owner(tok)
		if err != nil {
			return err
		}

		if !isSecurityAdmin(sec, owner, requester) && !sec.Check(requester, dbtype.FlagRead) {
			return dberrors.SecurityViolation("%s lacks read access to %s's security", requester, id)
		}

		out = sec

		return nil
	})

	return out, err
}

// readOwnerAndSecurity fetches id's owner and Security under a
// short-lived reader token, for callers that need them before deciding
// whether to acquire a writer token.
func (p *DatabasePrims) readOwnerAndSecurity(ctx context.Context, id dbid.Id) (owner dbid.Id, sec dbtype.Security, err error) {
	err = p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		owner, err = e.Owner(tok)
		if err != nil {
			return err
		}

		sec, err = e.Security(tok)

		return err
	})

	return owner, sec, err
}

// SetEntitySecurityFlags replaces id's list/other flag bitsets, gated on
// requester being owner or admin.
func (p *DatabasePrims) SetEntitySecurityFlags(ctx context.Context, requester, id dbid.Id, listFlags, otherFlags dbtype.Flag) error {
	owner, sec, err := p.readOwnerAndSecurity(ctx, id)
	if err != nil {
		return err
	}

	if !isSecurityAdmin(sec, owner, requester) {
		return dberrors.SecurityViolation("%s is not owner or admin of %s", requester, id)
	}

	sec.SetListFlags(listFlags)
	sec.SetOtherFlags(otherFlags)

	return p.withWriter(ctx, id, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.SetSecurity(tok, sec)
	})
}

// AddEntityAdmin adds newAdmin to id's admin list, gated on requester
// being owner or an existing admin.
func (p *DatabasePrims) AddEntityAdmin(ctx context.Context, requester, id, newAdmin dbid.Id) error {
	owner, sec, err := p.readOwnerAndSecurity(ctx, id)
	if err != nil {
		return err
	}

	if !isSecurityAdmin(sec, owner, requester) {
		return dberrors.SecurityViolation("%s is not owner or admin of %s", requester, id)
	}

	sec.AddAdmin(newAdmin)

	return p.withWriter(ctx, id, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.SetSecurity(tok, sec)
	})
}

// RemoveEntityAdmin removes formerAdmin from id's admin list, gated on
// requester being owner or an existing admin.
func (p *DatabasePrims) RemoveEntityAdmin(ctx context.Context, requester, id, formerAdmin dbid.Id) error {
	owner, sec, err := p.readOwnerAndSecurity(ctx, id)
	if err != nil {
		return err
	}

	if !isSecurityAdmin(sec, owner, requester) {
		return dberrors.SecurityViolation("%s is not owner or admin of %s", requester, id)
	}

	sec.RemoveAdmin(formerAdmin)

	return p.withWriter(ctx, id, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.SetSecurity(tok, sec)
	})
}

// GetApplicationSecurity returns the PropertySecurity of app on id,
// gated like GetEntitySecurity but scoped to the application.
func (p *DatabasePrims) GetApplicationSecurity(ctx context.Context, requester, id dbid.Id, app string) (dbtype.PropertySecurity, error) {
	var out dbtype.PropertySecurity

	err := p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		ap, ok, err := e.ApplicationProperty(tok, app)
		if err != nil {
			return err
		}

		if !ok {
			return dberrors.NotFound("application %q not found on %s", app, id)
		}

		sec := ap.Security()
		if !ap.Owner().Equal(requester) && !sec.Check(requester, dbtype.FlagRead) {
			return dberrors.SecurityViolation("%s lacks read access to application %q", requester, app)
		}

		out = sec

		return nil
	})

	return out, err
}

// SetApplicationSecurity replaces the PropertySecurity of app on id,
// gated on requester being the application's owner.
func (p *DatabasePrims) SetApplicationSecurity(ctx context.Context, requester, id dbid.Id, app string, sec dbtype.PropertySecurity) error {
	var owner dbid.Id

	if err := p.withReader(ctx, id, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		ap, ok, err := e.ApplicationProperty(tok, app)
		if err != nil {
			return err
		}

		if !ok {
			return dberrors.NotFound("application %q not found on %s", app, id)
		}

		owner = ap.Owner()

		return nil
	}); err != nil {
		return err
	}

	if !owner.Equal(requester) {
		return dberrors.SecurityViolation("%s does not own application %q", requester, app)
	}

	return p.withWriter(ctx, id, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		ap, err := e.EnsureApplicationProperty(tok, app, owner)
		if err != nil {
			return err
		}

		ap.SetSecurity(sec)

		return nil
	})
}

// CanUseAction reports whether requester satisfies an Action/Exit's
// invocation lock, evaluating it with groups as the membership oracle.
func (p *DatabasePrims) CanUseAction(ctx context.Context, requester, actionID dbid.Id) (bool, error) {
	var ok bool

	err := p.withReader(ctx, actionID, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		lock, err := e.ActionLock(tok)
		if err != nil {
			return err
		}

		result, err := lock.Evaluate(requester, newGroupChecker(ctx, p), newPropertyReader(ctx, p))
		if err != nil {
			return err
		}

		ok = result

		return nil
	})

	return ok, err
}
