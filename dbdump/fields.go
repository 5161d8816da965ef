package dbdump

import (
	"context"
	"strings"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dbtype"
)

// fieldMethod names how a FIELDS-state value is parsed and applied (spec
// §6.3: "value is one of: String / string-multiple ... Id / id-multiple
// ... Document ... Lock").
type fieldMethod int

const (
	methodString fieldMethod = iota
	methodStringMultiple
	methodID
	methodIDMultiple
	methodDocument
	methodLock
)

type fieldSpec struct {
	method fieldMethod

	setString func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error
	setID     func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error
	addID     func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error
	setMulti  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v []string) error
	setDoc    func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbtype.PropertyData) error
	setLock   func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbtype.Lock) error
}

// fieldTable maps a dump field token (normalized to snake_case) to the
// Entity setter it drives. owner/name/flag are handled directly by the
// ENTITY state (spec §6.3) and do not appear here.
var fieldTable = map[string]fieldSpec{
	"note": {
		method:    methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error { return e.SetNote(tok, v) },
	},
	"registration_name": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetRegistrationName(tok, v)
		},
	},
	"registration_category": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetRegistrationCategory(tok, v)
		},
	},
	"display_name": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetDisplayName(tok, v)
		},
	},
	"contained_by": {
		method: methodID,
		setID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.SetContainedBy(tok, v) },
	},
	"home": {
		method: methodID,
		setID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.SetHome(tok, v) },
	},
	"vehicle_interior": {
		method: methodID,
		setID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.SetVehicleInterior(tok, v) },
	},
	"vehicle_controller": {
		method: methodID,
		setID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.SetVehicleController(tok, v) },
	},
	"action_contained_by": {
		method: methodID,
		setID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.SetActionContainedBy(tok, v) },
	},
	"thing_lock": {
		method:  methodLock,
		setLock: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbtype.Lock) error { return e.SetThingLock(tok, v) },
	},
	"action_success_message": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetActionSuccessMessage(tok, v)
		},
	},
	"action_fail_message": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetActionFailMessage(tok, v)
		},
	},
	"program_language": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetProgramLanguage(tok, v)
		},
	},
	"program_reg_name": {
		method: methodString,
		setString: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v string) error {
			return e.SetProgramRegistrationName(tok, v)
		},
	},
	"linked_programs": {
		method: methodIDMultiple,
		addID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.AddLinkedProgram(tok, v) },
	},
	"action_targets": {
		method: methodIDMultiple,
		addID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.AddActionTarget(tok, v) },
	},
	"group_members": {
		method: methodIDMultiple,
		addID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.AddGroupMember(tok, v) },
	},
	"program_includes": {
		method: methodIDMultiple,
		addID:  func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbid.Id) error { return e.AddProgramInclude(tok, v) },
	},
	"action_commands": {
		method: methodStringMultiple,
		setMulti: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v []string) error {
			return e.SetActionCommands(tok, v)
		},
	},
	"program_source": {
		method: methodDocument,
		setDoc: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbtype.PropertyData) error {
			return e.SetProgramSource(tok, v)
		},
	},
	"action_lock": {
		method:  methodLock,
		setLock: func(e *dbtype.Entity, tok *concurrency.WriterLockToken, v dbtype.Lock) error { return e.SetActionLock(tok, v) },
	},
}

// parseFields handles the FIELDS sub-state (spec §6.3).
func (r *DumpReader) parseFields(ctx context.Context, line string) error {
	if r.inner != innerNone {
		return r.continueInner(ctx, line)
	}

	key, value, ok := keyValue(line)
	if !ok {
		command, rest := splitWord(line)

		if strings.ToLower(command) == "end" && strings.ToLower(rest) == "fields" {
			return r.endFields(ctx)
		}

		return dberrors.BadArguments("fields: malformed input %q", line)
	}

	name := normalizeFieldName(key)

	spec, ok := fieldTable[name]
	if !ok {
		return dberrors.BadArguments("fields: unknown field %q", key)
	}

	switch spec.method {
	case methodString:
		return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
			return spec.setString(e, tok, value)
		})
	case methodID:
		id, err := r.symbols.resolve(strings.TrimSpace(value))
		if err != nil {
			return err
		}

		return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
			return spec.setID(e, tok, id)
		})
	case methodIDMultiple:
		id, err := r.symbols.resolve(strings.TrimSpace(value))
		if err != nil {
			return err
		}

		return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
			return spec.addID(e, tok, id)
		})
	case methodStringMultiple:
		r.pendingMulti[name] = append(r.pendingMulti[name], value)

		return nil
	case methodDocument:
		r.multiline = multilineState{
			variant:   dbtype.VariantDocument,
			remaining: 0,
			finish: func(ctx context.Context, data dbtype.PropertyData) error {
				return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
					return spec.setDoc(e, tok, data)
				})
			},
		}

		return r.beginDocumentLines(value)
	case methodLock:
		return r.beginLock(value, func(ctx context.Context, lock dbtype.Lock) error {
			return r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
				return spec.setLock(e, tok, lock)
			})
		})
	default:
		return dberrors.Impossible("unknown field method %d", spec.method)
	}
}

func (r *DumpReader) endFields(ctx context.Context) error {
	for name, values := range r.pendingMulti {
		spec := fieldTable[name]

		if err := r.withWriter(ctx, func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error {
			return spec.setMulti(e, tok, values)
		}); err != nil {
			return err
		}
	}

	r.pendingMulti = nil
	r.outer = stateEntity

	return nil
}
