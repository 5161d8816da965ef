package dbdump

import (
	"context"
	"strings"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// parseEntity handles the ENTITY outer state: print, owner, name, flag,
// the security/fields/properties sub-state entries, and end entity
// (spec §6.3).
func (r *DumpReader) parseEntity(ctx context.Context, line string) error {
	command, rest := splitWord(line)

	switch strings.ToLower(command) {
	case "print":
		return r.printEntity(ctx)
	case "owner":
		return r.setOwner(ctx, rest)
	case "name":
		return r.setName(ctx, rest)
	case "flag":
		return r.addFlag(ctx, rest)
	case "security":
		r.sec = securityBuilder{}
		r.outer = stateSecurity

		return nil
	case "fields":
		r.pendingMulti = make(map[string][]string)
		r.outer = stateFields

		return nil
	case "properties":
		r.outer = stateProperties

		return nil
	case "end":
		if strings.ToLower(rest) != "entity" {
			return dberrors.BadArguments("unknown end target %q", rest)
		}

		return r.endEntity(ctx)
	default:
		return dberrors.BadArguments("unknown entity command %q", command)
	}
}

func (r *DumpReader) printEntity(ctx context.Context) error {
	ref, err := r.access.GetEntity(ctx, r.entityID)
	if err != nil {
		return err
	}
	defer ref.Release()

	r.log.Infof("dump print: %s", ref.Entity().ToString())

	return nil
}

func (r *DumpReader) setOwner(ctx context.Context, rest string) error {
	owner, err := r.symbols.resolve(strings.TrimSpace(rest))
	if err != nil {
		return err
	}

	return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.SetOwner(tok, owner)
	})
}

func (r *DumpReader) setName(ctx context.Context, rest string) error {
	if rest == "" {
		return dberrors.BadArguments("name requires a value")
	}

	err := r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.SetName(tok, rest)
	})
	if err != nil {
		return err
	}

	r.entityNamed = true

	return nil
}

func (r *DumpReader) addFlag(ctx context.Context, rest string) error {
	if rest == "" {
		return dberrors.BadArguments("flag requires a name")
	}

	return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
		return e.AddFlag(tok, strings.ToLower(rest))
	})
}

func (r *DumpReader) endEntity(ctx context.Context) error {
	name, err := r.currentName(ctx)
	if err != nil {
		return err
	}

	rec := entityRecord{Type: r.entityType, Name: name}
	if err := r.validate.Struct(rec); err != nil {
		return dberrors.BadArguments("entity %s is incomplete: %v", r.entityID, err)
	}

	r.outer = stateNone
	r.entityID = dbid.Id{}

	return nil
}

func (r *DumpReader) currentName(ctx context.Context) (string, error) {
	var name string

	err := r.withReader(ctx, func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error {
		n, err := e.Name(tok)
		if err != nil {
			return err
		}

		name = n

		return nil
	})

	return name, err
}
