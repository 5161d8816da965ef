package primitives

import (
	"context"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// groupChecker adapts DatabasePrims to dbtype.GroupMembershipChecker, so
// Lock evaluation can ask "is candidate a member of group" without the
// dbtype package importing back up into primitives (spec §4.10).
type groupChecker struct {
	ctx context.Context
	p   *DatabasePrims
}

func newGroupChecker(ctx context.Context, p *DatabasePrims) *groupChecker {
	return &groupChecker{ctx: ctx, p: p}
}

// IsMember implements dbtype.GroupMembershipChecker. Any error (group
// not found, group not a Group entity, wrong token) is treated as
// non-membership rather than propagated, matching Lock.Evaluate's bool
// return.
func (g *groupChecker) IsMember(group, candidate dbid.Id) bool {
	var member bool

	_ = g.p.withReader(g.ctx, group, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		ok, err := e.IsGroupMember(tok, candidate)
		if err != nil {
			return err
		}

		member = ok

		return nil
	})

	return member
}

// propertyReader adapts DatabasePrims to dbtype.PropertyReader, so
// ByProperty locks can read a candidate's application properties.
type propertyReader struct {
	ctx context.Context
	p   *DatabasePrims
}

func newPropertyReader(ctx context.Context, p *DatabasePrims) *propertyReader {
	return &propertyReader{ctx: ctx, p: p}
}

// ReadProperty implements dbtype.PropertyReader. path is a fully
// qualified "/app/rest/of/path" property path; the first segment
// selects the application.
func (r *propertyReader) ReadProperty(candidate dbid.Id, path string) (dbtype.PropertyData, bool) {
	app, rest, ok := splitApplicationPath(path)
	if !ok {
		return dbtype.PropertyData{}, false
	}

	var (
		value dbtype.PropertyData
		found bool
	)

	_ = r.p.withReader(r.ctx, candidate, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		ap, ok, err := e.ApplicationProperty(tok, app)
		if err != nil || !ok {
			return err
		}

		v, ok, err := ap.Directory().Get(rest)
		if err != nil || !ok {
			return err
		}

		value, found = v, true

		return nil
	})

	return value, found
}
