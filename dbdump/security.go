package dbdump

import (
	"context"
	"strings"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// securityBuilder accumulates a SECURITY sub-block's commands before it is
// applied in one shot at `end security`, so a malformed block never
// leaves an entity's Security half-updated.
type securityBuilder struct {
	forApp      string
	forAppOwner dbid.Id
	admins      []dbid.Id
	list        []dbid.Id
	listFlags   dbtype.Flag
	otherFlags  dbtype.Flag
}

// parseSecurity handles the SECURITY sub-state, shared between an
// entity's own Security and an application's PropertySecurity (spec
// §6.3: "Security sub-blocks modify either the entity-level Security or
// the per-application PropertySecurity of the currently targeted
// application").
func (r *DumpReader) parseSecurity(ctx context.Context, line string) error {
	command, rest := splitWord(line)

	switch strings.ToLower(command) {
	case "group":
		id, err := r.symbols.resolve(strings.TrimSpace(rest))
		if err != nil {
			return err
		}

		r.sec.list = append(r.sec.list, id)

		return nil
	case "admin":
		id, err := r.symbols.resolve(strings.TrimSpace(rest))
		if err != nil {
			return err
		}

		r.sec.admins = append(r.sec.admins, id)

		return nil
	case "flag":
		return r.setSecurityFlag(rest)
	case "end":
		if strings.ToLower(rest) != "security" {
			return dberrors.BadArguments("unknown end target %q", rest)
		}

		return r.endSecurity(ctx)
	default:
		return dberrors.BadArguments("unknown security command %q", command)
	}
}

func (r *DumpReader) setSecurityFlag(rest string) error {
	target, flagName := splitWord(rest)

	flag, err := parseFlag(flagName)
	if err != nil {
		return err
	}

	switch strings.ToLower(target) {
	case "group":
		r.sec.listFlags |= flag
	case "other":
		r.sec.otherFlags |= flag
	default:
		return dberrors.BadArguments("flag target must be group or other, got %q", target)
	}

	return nil
}

func (r *DumpReader) endSecurity(ctx context.Context) error {
	if r.sec.forApp == "" {
		sec := dbtype.NewSecurity()

		for _, id := range r.sec.admins {
			sec.AddAdmin(id)
		}

		for _, id := range r.sec.list {
			if err := sec.AddListID(id); err != nil {
				return err
			}
		}

		sec.SetListFlags(r.sec.listFlags)
		sec.SetOtherFlags(r.sec.otherFlags)

		err := r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
			return e.SetSecurity(tok, sec)
		})
		if err != nil {
			return err
		}

		r.outer = stateEntity

		return nil
	}

	propSec := dbtype.NewPropertySecurity()

	for _, id := range r.sec.admins {
		propSec.AddAdmin(id)
	}

	for _, id := range r.sec.list {
		if err := propSec.AddListID(id); err != nil {
			return err
		}
	}

	if err := propSec.SetListFlags(r.sec.listFlags); err != nil {
		return err
	}

	if err := propSec.SetOtherFlags(r.sec.otherFlags); err != nil {
		return err
	}

	app := r.sec.forApp
	owner := r.sec.forAppOwner

	err := r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		ap, err := e.EnsureApplicationProperty(tok, app, owner)
		if err != nil {
			return err
		}

		ap.SetSecurity(propSec)

		return nil
	})
	if err != nil {
		return err
	}

	r.outer = stateProperties

	return nil
}
