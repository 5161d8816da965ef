// Package dbdump implements DumpReader, the line-oriented import state
// machine that turns a MUTGOS dump file (spec §6.3) into a fully wired
// database reachable through DatabaseAccess. It is grounded on the
// original dbdump_MutgosDumpFileReader/DumpReaderInterface split: this
// package folds both into one reader that talks directly to
// dbaccess.DatabaseAccess instead of a C++ DbInterface singleton.
package dbdump

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbaccess"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/dbtype"
	"github.com/mutgos/dbcore/mlog"
)

const (
	versionLine = "MUTGOS DUMP VERSION 1"
	endLine     = "MUTGOS DUMP END"
)

// outerState is the dump grammar's top-level state (spec §4.11: "Outer:
// NONE → ENTITY → {SECURITY | FIELDS | PROPERTIES}, returning to ENTITY,
// then to NONE").
type outerState int

const (
	stateNone outerState = iota
	stateEntity
	stateSecurity
	stateFields
	stateProperties
)

// innerState is a sub-state entered within FIELDS or PROPERTIES while
// reading a multi-line or structured value.
type innerState int

const (
	innerNone innerState = iota
	innerLock
	innerLockID
	innerLockProperty
	innerDocument
	innerSet
)

// entityRecord captures the dump-supplied shape of the entity currently
// being built, validated once at `end entity` (spec §9's struct-validation
// domain-stack hook).
type entityRecord struct {
	Type dbtype.EntityType `validate:"-"`
	Name string            `validate:"required"`
}

// DumpReader consumes a UTF-8 dump file and applies it against access. It
// is not safe for concurrent use; a reader is single-shot per call to
// Parse, matching the original's single-pass parser.
type DumpReader struct {
	access   *dbaccess.DatabaseAccess
	log      mlog.Logger
	validate *validator.Validate
	symbols  *symbolTable

	outer outerState
	inner innerState

	site    uint32
	hasSite bool

	entityID     dbid.Id
	entityType   dbtype.EntityType
	entityNamed  bool
	entitySymbol string

	sec securityBuilder

	pendingMulti map[string][]string
	multiline    multilineState
	pendingLock  pendingLock

	lineNum int
}

// New returns a DumpReader that applies parsed commands against access,
// logging diagnostics (including `print`) through log.
func New(access *dbaccess.DatabaseAccess, log mlog.Logger) *DumpReader {
	if log == nil {
		log = &mlog.NoneLogger{}
	}

	return &DumpReader{
		access:   access,
		log:      log,
		validate: validator.New(),
		symbols:  newSymbolTable(),
	}
}

// Parse reads a dump file from r line by line, applying it against the
// reader's DatabaseAccess. On any error, parsing halts, any half-built
// entity is discarded (spec §4.14: "signals the backing database to
// discard any half-populated entity"), and the error is returned;
// entities already completed by an earlier `end entity` are left in
// place. CommitAll runs only once the closing dump line is reached.
func (r *DumpReader) Parse(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), dbtype.MaxDocumentLineLength*2)

	first := true

	for scanner.Scan() {
		r.lineNum++
		line := scanner.Text()

		if first {
			first = false

			if strings.TrimSpace(line) != versionLine {
				return dberrors.BadArguments("line %d: expected %q, got %q", r.lineNum, versionLine, line)
			}

			continue
		}

		trimmed := strings.TrimSpace(line)

		if trimmed == endLine {
			if r.outer != stateNone {
				return r.parseErrorf("dump ended while still inside an entity or site")
			}

			if err := r.access.CommitAll(ctx); err != nil {
				return dberrors.DatabaseError(err, "committing imported dump")
			}

			return nil
		}

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if err := r.dispatch(ctx, trimmed); err != nil {
			r.rollback(ctx)

			return r.parseErrorf("%v", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return dberrors.DatabaseError(err, "reading dump")
	}

	return r.parseErrorf("dump file ended before %q", endLine)
}

func (r *DumpReader) parseErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)

	return dberrors.BadArguments("line %d: %s", r.lineNum, msg)
}

// rollback discards the entity under construction, if any, leaving
// already-committed entities untouched (spec §4.14).
func (r *DumpReader) rollback(ctx context.Context) {
	if r.outer == stateNone || r.entityID.IsDefault() {
		return
	}

	if res, err := r.access.DeleteEntity(ctx, r.entityID); err != nil || res != dbinterface.OK {
		r.log.Warnf("dump rollback: could not discard incomplete entity %s", r.entityID)
	}

	r.outer = stateNone
	r.inner = innerNone
	r.entityID = dbid.Id{}
	r.sec = securityBuilder{}
	r.multiline = multilineState{}
	r.pendingLock = pendingLock{}
	r.pendingMulti = nil
}

// continueInner routes a line to whichever multi-line or structured
// sub-state is active, regardless of which outer state (FIELDS or
// PROPERTIES) entered it.
func (r *DumpReader) continueInner(ctx context.Context, line string) error {
	switch r.inner {
	case innerDocument:
		return r.continueDocument(ctx, line)
	case innerSet:
		return r.continueSet(ctx, line)
	case innerLockID, innerLockProperty:
		return r.continueLock(ctx, line)
	default:
		return dberrors.Impossible("unexpected inner state %d", r.inner)
	}
}

func (r *DumpReader) dispatch(ctx context.Context, line string) error {
	switch r.outer {
	case stateNone:
		return r.parseNone(ctx, line)
	case stateEntity:
		return r.parseEntity(ctx, line)
	case stateSecurity:
		return r.parseSecurity(ctx, line)
	case stateFields:
		return r.parseFields(ctx, line)
	case stateProperties:
		return r.parseProperties(ctx, line)
	default:
		return dberrors.Impossible("unknown outer state %d", r.outer)
	}
}

func (r *DumpReader) parseNone(ctx context.Context, line string) error {
	command, rest := splitWord(line)

	switch strings.ToLower(command) {
	case "mksite":
		if rest == "" {
			return dberrors.BadArguments("mksite requires a site name")
		}

		siteID, err := r.access.NewSite(ctx, rest)
		if err != nil {
			return err
		}

		r.site, r.hasSite = siteID, true

		return nil
	case "setsite":
		id, err := parseUint(rest)
		if err != nil {
			return err
		}

		r.site, r.hasSite = uint32(id), true

		return nil
	case "mkentity":
		return r.mkEntity(ctx, rest)
	case "modentity":
		return r.modEntity(ctx, rest)
	case "end":
		if strings.ToLower(rest) != "site" {
			return dberrors.BadArguments("unknown end target %q", rest)
		}

		if !r.hasSite {
			return dberrors.BadArguments("end site with no site selected")
		}

		r.hasSite = false

		return nil
	default:
		return dberrors.BadArguments("unknown command %q", command)
	}
}

func (r *DumpReader) mkEntity(ctx context.Context, rest string) error {
	if !r.hasSite {
		return dberrors.BadArguments("mkentity with no site selected")
	}

	typeToken, symbolToken := splitWord(rest)

	typ, err := parseEntityType(typeToken)
	if err != nil {
		return err
	}

	placeholder := strings.TrimPrefix(symbolToken, "$")
	if placeholder == "" {
		placeholder = typeToken
	}

	ref, res, err := r.access.NewEntity(ctx, typ, r.site, dbid.Default, placeholder)
	if err != nil {
		return err
	}

	if res != dbinterface.OK {
		return dberrors.DatabaseError(nil, "mkentity: backend returned %s", res)
	}

	id := ref.Entity().ID()
	ref.Release()

	if symbolToken != "" {
		name := strings.TrimPrefix(symbolToken, "$")
		r.symbols.bind(name, id)
		r.entitySymbol = name
	} else {
		r.entitySymbol = ""
	}

	r.enterEntity(id, typ)

	return nil
}

func (r *DumpReader) modEntity(ctx context.Context, rest string) error {
	if !r.hasSite {
		return dberrors.BadArguments("modentity with no site selected")
	}

	symbol := strings.TrimSpace(rest)

	existing, err := r.symbols.resolve(symbol)
	if err != nil {
		return err
	}

	id := dbid.New(r.site, existing.EntityID())

	ref, err := r.access.GetEntity(ctx, id)
	if err != nil {
		return err
	}

	typ := ref.Entity().Type()
	ref.Release()

	r.entitySymbol = strings.TrimPrefix(symbol, "$")
	r.enterEntity(id, typ)

	return nil
}

func (r *DumpReader) enterEntity(id dbid.Id, typ dbtype.EntityType) {
	r.outer = stateEntity
	r.entityID = id
	r.entityType = typ
	r.entityNamed = false
}

// withReader and withWriter fetch the current entity and acquire the
// requested lock kind, matching primitives.DatabasePrims's own
// withReader/withWriter pattern at the smaller scope this package needs.
func (r *DumpReader) withReader(ctx context.Context, fn func(e *dbtype.Entity, tok *concurrency.ReaderLockToken) error) error {
	ref, err := r.access.GetEntity(ctx, r.entityID)
	if err != nil {
		return err
	}
	defer ref.Release()

	e := ref.Entity()
	tok := concurrency.AcquireReader(e, e.LockIdentity())
	defer tok.Release()

	return fn(e, tok)
}

func (r *DumpReader) withWriter(ctx context.Context, fn func(e *dbtype.Entity, tok *concurrency.WriterLockToken) error) error {
	ref, err := r.access.GetEntity(ctx, r.entityID)
	if err != nil {
		return err
	}
	defer ref.Release()

	e := ref.Entity()
	tok := concurrency.AcquireWriter(e, e.LockIdentity())
	defer tok.Release()

	return fn(e, tok)
}
