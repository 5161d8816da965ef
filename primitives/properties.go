package primitives

import (
	"strings"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"

	"context"

	"github.com/mutgos/dbcore/dbid"
)

// splitApplicationPath splits a fully qualified "/app/rest/of/path"
// property path into its application name and the remaining directory
// path (spec §3.4: "the first path segment ... selects an application").
func splitApplicationPath(path string) (app, rest string, ok bool) {
	trimmed := strings.TrimLeft(path, "/")
	if trimmed == "" {
		return "", "", false
	}

	idx := strings.IndexByte(trimmed, '/')
	if idx < 0 {
		return "", "", false
	}

	return trimmed[:idx], trimmed[idx+1:], true
}

func (p *DatabasePrims) getProperty(ctx context.Context, requester, id dbid.Id, path string) (dbtype.PropertyData, error) {
	app, rest, ok := splitApplicationPath(path)
	if !ok {
		return dbtype.PropertyData{}, dberrors.BadArguments("property path %q must name an application", path)
	}

	var value dbtype.PropertyData

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
			return dberrors.SecurityViolation("%s lacks read access to %s's %q property", requester, id, path)
		}

		v, found, err := ap.Directory().Get(rest)
		if err != nil {
			return err
		}

		if !found {
			return dberrors.NotFound("property %q not found on %s", path, id)
		}

		value = v

		return nil
	})

	return value, err
}

// GetApplicationProperty returns the raw PropertyData stored at path on
// id, gated by the owning application's PropertySecurity.
func (p *DatabasePrims) GetApplicationProperty(ctx context.Context, requester, id dbid.Id, path string) (dbtype.PropertyData, error) {
	return p.getProperty(ctx, requester, id, path)
}

// GetApplicationPropertyString is a typed convenience wrapper returning
// path's value rendered as a string via PropertyData.ToString.
func (p *DatabasePrims) GetApplicationPropertyString(ctx context.Context, requester, id dbid.Id, path string) (string, error) {
	v, err := p.getProperty(ctx, requester, id, path)
	if err != nil {
		return "", err
	}

	return v.ToString(), nil
}

// GetApplicationPropertyInteger is a typed convenience wrapper requiring
// path's value to be an integer.
func (p *DatabasePrims) GetApplicationPropertyInteger(ctx context.Context, requester, id dbid.Id, path string) (int64, error) {
	v, err := p.getProperty(ctx, requester, id, path)
	if err != nil {
		return 0, err
	}

	i, ok := v.IntegerValue()
	if !ok {
		return 0, dberrors.BadArguments("property %q on %s is not an integer", path, id)
	}

	return i, nil
}

// SetApplicationProperty stores value at path on id, creating the
// application (owned by requester) on first use if it doesn't exist.
// When the application already exists, a requester other than its owner
// needs its PropertySecurity write flag. When it does not exist yet, it
// is created and written with no security check at all.
func (p *DatabasePrims) SetApplicationProperty(ctx context.Context, requester, id dbid.Id, path string, value dbtype.PropertyData) error {
	app, rest, ok := splitApplicationPath(path)
	if !ok {
		return dberrors.BadArguments("property path %q must name an application", path)
	}

	return p.withWriter(ctx, id, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		existing, found, err := e.ApplicationProperty(&tok.ReaderLockToken, app)
		_ = existing
		_ = found

		if err != nil {
			return err
		}

		ap, err := e.EnsureApplicationProperty(tok, app, requester)
		if err != nil {
			return err
		}

		if found && !ap.Owner().Equal(requester) && !ap.Security().Check(requester, dbtype.FlagWrite) {
			return dberrors.SecurityViolation("%s lacks write access to %s's %q property", requester, id, path)
		}

		return ap.Directory().Set(rest, value)
	})
}

// SetApplicationPropertyString is a typed convenience wrapper storing a
// string-variant PropertyData at path.
func (p *DatabasePrims) SetApplicationPropertyString(ctx context.Context, requester, id dbid.Id, path, value string) error {
	return p.SetApplicationProperty(ctx, requester, id, path, dbtype.NewString(value))
}

// SetApplicationPropertyInteger is a typed convenience wrapper storing an
// integer-variant PropertyData at path.
func (p *DatabasePrims) SetApplicationPropertyInteger(ctx context.Context, requester, id dbid.Id, path string, value int64) error {
	return p.SetApplicationProperty(ctx, requester, id, path, dbtype.NewInteger(value))
}
