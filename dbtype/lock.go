package dbtype

import (
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
)

// LockType names a Lock's match predicate kind.
type LockType uint8

const (
	// LockInvalid is an unset lock. It is the zero value, so a Lock field
	// that was never assigned evaluates as always-passing rather than
	// fail-closed. Evaluate ignores negate for this kind.
	LockInvalid LockType = iota
	// LockByID matches a candidate whose id equals the locked id.
	LockByID
	// LockByGroup matches a candidate that is a member of the locked
	// group.
	LockByGroup
	// LockByProperty matches a candidate that is a PropertyEntity
	// carrying a property at the locked path equal to the locked value.
	LockByProperty
)

// GroupMembershipChecker is implemented by whatever holds group
// membership data, so Lock evaluation doesn't need to import the entity
// package directly (avoiding an import cycle).
type GroupMembershipChecker interface {
	IsMember(group, candidate dbid.Id) bool
}

// PropertyReader is implemented by whatever can read a PropertyEntity's
// properties, so ByProperty locks can be evaluated without importing the
// entity package directly.
type PropertyReader interface {
	ReadProperty(candidate dbid.Id, path string) (PropertyData, bool)
}

// Lock is a persisted predicate evaluated against a candidate id: ById,
// ByGroup, or ByProperty, with an optional negate flag that inverts the
// result (spec §3.6, carrying the original's Lock/negate design per
// original_source/dbtype_Lock.h).
type Lock struct {
	kind   LockType
	id     dbid.Id
	path   string
	value  PropertyData
	negate bool
}

// NewByID builds an ById lock.
func NewByID(id dbid.Id, negate bool) Lock {
	return Lock{kind: LockByID, id: id, negate: negate}
}

// NewByGroup builds a ByGroup lock.
func NewByGroup(group dbid.Id, negate bool) Lock {
	return Lock{kind: LockByGroup, id: group, negate: negate}
}

// NewByProperty builds a ByProperty lock.
func NewByProperty(path string, value PropertyData, negate bool) Lock {
	return Lock{kind: LockByProperty, path: path, value: value, negate: negate}
}

// Kind returns the lock's predicate kind.
func (l Lock) Kind() LockType { return l.kind }

// Negate reports whether the lock's result is inverted.
func (l Lock) Negate() bool { return l.negate }

// Evaluate tests candidate against the lock, consulting groups and props
// as needed for ByGroup/ByProperty locks (either may be nil if the lock
// kind doesn't need it). An invalid (unset) lock always passes, negate
// included.
func (l Lock) Evaluate(candidate dbid.Id, groups GroupMembershipChecker, props PropertyReader) (bool, error) {
	if l.kind == LockInvalid {
		return true, nil
	}

	var result bool

	switch l.kind {
	case LockByID:
		result = candidate.Equal(l.id)
	case LockByGroup:
		if groups == nil {
			return false, dberrors.Impossible("lock evaluation requires a group membership checker")
		}

		result = groups.IsMember(l.id, candidate)
	case LockByProperty:
		if props == nil {
			return false, dberrors.Impossible("lock evaluation requires a property reader")
		}

		val, ok := props.ReadProperty(candidate, l.path)
		result = ok && val.Equals(l.value)
	default:
		return false, dberrors.Impossible("unknown lock kind %d", l.kind)
	}

	if l.negate {
		result = !result
	}

	return result, nil
}
