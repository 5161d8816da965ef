package dbdump

import (
	"context"
	"strings"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// parseProperties handles the PROPERTIES sub-state: declaring an
// application's security block, setting typed properties, and end
// properties (spec §6.3).
func (r *DumpReader) parseProperties(ctx context.Context, line string) error {
	if r.inner != innerNone {
		return r.continueInner(ctx, line)
	}

	command, rest := splitWord(line)

	switch strings.ToLower(command) {
	case "security":
		return r.beginAppSecurity(rest)
	case "end":
		if strings.ToLower(rest) != "properties" {
			return dberrors.BadArguments("unknown end target %q", rest)
		}

		r.outer = stateEntity

		return nil
	default:
		return r.beginProperty(ctx, line)
	}
}

func (r *DumpReader) beginAppSecurity(rest string) error {
	app, ownerToken := splitWord(rest)
	if app == "" || ownerToken == "" {
		return dberrors.BadArguments("properties: security requires an application name and an owner variable")
	}

	owner, err := r.symbols.resolve(strings.TrimSpace(ownerToken))
	if err != nil {
		return err
	}

	r.sec = securityBuilder{forApp: app, forAppOwner: owner}
	r.outer = stateSecurity

	return nil
}

// beginProperty parses a "<type> <path> = <value>" (or "set <elem_type>
// <path> = <value>") property declaration. Scalar types apply
// immediately; document and set enter the multi-line sub-state.
func (r *DumpReader) beginProperty(ctx context.Context, line string) error {
	typeToken, rest := splitWord(line)

	variant, err := parsePropertyVariant(typeToken)
	if err != nil {
		return err
	}

	if variant == dbtype.VariantSet {
		elemToken, rest2 := splitWord(rest)

		elemVariant, err := parsePropertyVariant(elemToken)
		if err != nil {
			return err
		}

		if elemVariant == dbtype.VariantDocument || elemVariant == dbtype.VariantSet {
			return dberrors.BadArguments("set element type must be scalar, got %q", elemToken)
		}

		path, value, ok := keyValue(rest2)
		if !ok {
			return dberrors.BadArguments("properties: malformed set declaration %q", line)
		}

		r.multiline = multilineState{
			variant:     dbtype.VariantSet,
			elemVariant: elemVariant,
			finish: func(ctx context.Context, data dbtype.PropertyData) error {
				return r.applyProperty(ctx, path, data)
			},
		}

		return r.beginSetItems(value)
	}

	path, value, ok := keyValue(rest)
	if !ok {
		return dberrors.BadArguments("properties: malformed declaration %q", line)
	}

	if variant == dbtype.VariantDocument {
		r.multiline = multilineState{
			variant: dbtype.VariantDocument,
			finish: func(ctx context.Context, data dbtype.PropertyData) error {
				return r.applyProperty(ctx, path, data)
			},
		}

		return r.beginDocumentLines(value)
	}

	data, err := parseScalar(variant, value, r.symbols)
	if err != nil {
		return err
	}

	return r.applyProperty(ctx, path, data)
}

// applyProperty resolves path's leading application segment, ensures the
// application exists (owned by the entity itself, per spec §9's
// self-owner bootstrap pattern extended to applications created purely
// from a dump), and writes data at the remaining path.
func (r *DumpReader) applyProperty(ctx context.Context, path string, data dbtype.PropertyData) error {
	app, rest, ok := splitApplicationPath(path)
	if !ok {
		return dberrors.BadArguments("property path %q must name an application", path)
	}

	return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		ap, err := e.EnsureApplicationProperty(tok, app, e.ID())
		if err != nil {
			return err
		}

		return ap.Directory().Set(rest, data)
	})
}
