package dbdump

import (
	"context"
	"strings"

	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

// pendingLock accumulates a LOCK sub-block: the field's value token
// ("id" / "!id" / "property" / "!property") resolves the kind and
// negation immediately; exactly one content line follows (a $var for
// LOCK_ID, or a property declaration for LOCK_PROPERTY), then a literal
// "end lock" line. LOCK_PROPERTY accepts only scalar-typed property
// declarations, a deliberate simplification of the document/set-capable
// property grammar the general PROPERTIES state supports.
type pendingLock struct {
	negate      bool
	built       dbtype.Lock
	awaitingEnd bool
	finish      func(ctx context.Context, lock dbtype.Lock) error
}

func (r *DumpReader) beginLock(value string, finish func(ctx context.Context, lock dbtype.Lock) error) error {
	token := strings.TrimSpace(value)

	negate := strings.HasPrefix(token, "!")
	token = strings.TrimPrefix(token, "!")

	switch strings.ToLower(token) {
	case "id":
		r.inner = innerLockID
	case "property":
		r.inner = innerLockProperty
	default:
		return dberrors.BadArguments("action_lock value must be id, !id, property or !property, got %q", value)
	}

	r.pendingLock = pendingLock{negate: negate, finish: finish}

	return nil
}

func (r *DumpReader) continueLock(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)

	if r.pendingLock.awaitingEnd {
		if strings.ToLower(trimmed) != "end lock" {
			return dberrors.BadArguments("expected end lock, got %q", line)
		}

		lock := r.pendingLock.built
		finish := r.pendingLock.finish

		r.inner = innerNone
		r.pendingLock = pendingLock{}

		return finish(ctx, lock)
	}

	switch r.inner {
	case innerLockID:
		id, err := r.symbols.resolve(trimmed)
		if err != nil {
			return err
		}

		r.pendingLock.built = dbtype.NewByID(id, r.pendingLock.negate)
	case innerLockProperty:
		typeToken, rest := splitWord(trimmed)

		variant, err := parsePropertyVariant(typeToken)
		if err != nil {
			return err
		}

		if variant == dbtype.VariantDocument || variant == dbtype.VariantSet {
			return dberrors.BadArguments("lock property value must be scalar, got %q", typeToken)
		}

		path, value, ok := keyValue(rest)
		if !ok {
			return dberrors.BadArguments("malformed lock property declaration %q", line)
		}

		data, err := parseScalar(variant, value, r.symbols)
		if err != nil {
			return err
		}

		r.pendingLock.built = dbtype.NewByProperty(path, data, r.pendingLock.negate)
	default:
		return dberrors.Impossible("unexpected inner state %d while parsing a lock", r.inner)
	}

	r.pendingLock.awaitingEnd = true

	return nil
}
