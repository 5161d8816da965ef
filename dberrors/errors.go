// Package dberrors carries the database core's error taxonomy: nine
// kinds, each built by its own constructor as a value of the single typed
// Error struct, which implements error, Unwrap and Is.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind names one of the nine error categories callers can branch on.
type Kind string

const (
	// KindBadArguments covers malformed inputs: empty names, default ids,
	// out-of-range values, or a value of the wrong type for a field.
	KindBadArguments Kind = "bad_arguments"
	// KindBadEntityType means the entity does not support the requested
	// operation, e.g. properties requested on a non-property entity.
	KindBadEntityType Kind = "bad_entity_type"
	// KindSecurityViolation means the operation would have succeeded but
	// the requester lacks the necessary capability.
	KindSecurityViolation Kind = "security_violation"
	// KindNotFound means the id is not present in the database.
	KindNotFound Kind = "not_found"
	// KindInUse means the entity cannot be deleted because it is pinned.
	KindInUse Kind = "in_use"
	// KindDatabaseError means the backend reported an unrecoverable
	// failure.
	KindDatabaseError Kind = "database_error"
	// KindLockError means the caller presented a token for a different
	// entity, or the wrong lock mode for the operation.
	KindLockError Kind = "lock_error"
	// KindImpossible means the specific id can never be deleted by
	// policy: reserved, a Capability, self, a running program, or the
	// caller's current container.
	KindImpossible Kind = "impossible"
	// KindAmbiguous means a name-matching search found two or more
	// candidates of equal quality and could not pick one.
	KindAmbiguous Kind = "ambiguous"
)

// Error is the typed error carried by every externally callable operation
// in this module. Title is a short human label, Message the detail, and
// Err (optional) the wrapped cause.
type Error struct {
	Kind    Kind
	Title   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}

	return e.Message
}

// Unwrap implements the error interface introduced in Go 1.13.
func (e Error) Unwrap() error {
	return e.Err
}

// Is reports whether target shares this error's Kind, so callers can use
// errors.Is(err, dberrors.Error{Kind: dberrors.KindNotFound}).
func (e Error) Is(target error) bool {
	var other Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}

	return false
}

func newf(kind Kind, title, format string, args ...any) Error {
	return Error{Kind: kind, Title: title, Message: fmt.Sprintf(format, args...)}
}

// BadArguments builds a KindBadArguments error.
func BadArguments(format string, args ...any) Error {
	return newf(KindBadArguments, "Bad Arguments", format, args...)
}

// BadEntityType builds a KindBadEntityType error.
func BadEntityType(format string, args ...any) Error {
	return newf(KindBadEntityType, "Bad Entity Type", format, args...)
}

// SecurityViolation builds a KindSecurityViolation error.
func SecurityViolation(format string, args ...any) Error {
	return newf(KindSecurityViolation, "Security Violation", format, args...)
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) Error {
	return newf(KindNotFound, "Not Found", format, args...)
}

// InUse builds a KindInUse error.
func InUse(format string, args ...any) Error {
	return newf(KindInUse, "In Use", format, args...)
}

// DatabaseError builds a KindDatabaseError error, wrapping the backend
// failure that caused it.
func DatabaseError(err error, format string, args ...any) Error {
	e := newf(KindDatabaseError, "Database Error", format, args...)
	e.Err = err

	return e
}

// LockError builds a KindLockError error.
func LockError(format string, args ...any) Error {
	return newf(KindLockError, "Lock Error", format, args...)
}

// Impossible builds a KindImpossible error.
func Impossible(format string, args ...any) Error {
	return newf(KindImpossible, "Impossible", format, args...)
}

// Ambiguous builds a KindAmbiguous error.
func Ambiguous(format string, args ...any) Error {
	return newf(KindAmbiguous, "Ambiguous", format, args...)
}

// Is reports whether err is a dberrors.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}

// ThrowMode controls how SecurityViolation propagates from a primitive
// operation: Return hands the error back to the caller normally, Panic
// aborts the current call stack immediately via a recovered panic, for
// callers that opted into the "throw" fast-abort mode (spec §7).
type ThrowMode int

const (
	// Return propagates a SecurityViolation as a normal error return.
	Return ThrowMode = iota
	// Panic aborts immediately by panicking with the Error value; pair
	// with Recover in the same goroutine.
	Panic
)

// Raise reports err according to mode. When mode is Panic, it panics with
// err (which must satisfy error); callers pair this with Recover.
func Raise(mode ThrowMode, err error) error {
	if mode == Panic && err != nil {
		panic(err)
	}

	return err
}

// Recover converts a panic raised by Raise(Panic, ...) back into an error.
// It is a no-op (leaves *errp untouched) when there was no panic, and
// re-panics with anything that isn't a dberrors.Error.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}

	if e, ok := r.(Error); ok {
		*errp = e

		return
	}

	panic(r)
}
