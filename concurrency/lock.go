// Package concurrency provides the scoped reader/writer lock tokens that
// every Entity field operation is required to present.
package concurrency

import (
	"sync"

	"github.com/mutgos/dbcore/dberrors"
)

// LockHolder identifies the thing a lock token is bound to. Entities
// implement this with their own identity so a token acquired against one
// entity cannot silently be used on another.
type LockHolder interface {
	LockIdentity() *EntityLock
}

// EntityLock is the embeddable reader/writer lock every Entity carries.
// Its own address serves as the comparable identity tokens are bound to.
type EntityLock struct {
	mu sync.RWMutex
}

// LockIdentity returns the stable, comparable identity for this lock: its
// own address. Embedding types satisfy LockHolder by returning &their
// embedded EntityLock.
func (l *EntityLock) LockIdentity() *EntityLock {
	return l
}

// ReaderLockToken is a scoped read-acquisition of an EntityLock. The zero
// value is not usable; construct with AcquireReader.
type ReaderLockToken struct {
	lock     *EntityLock
	identity *EntityLock
	released bool
}

// AcquireReader blocks until a read lock on holder is acquired and returns
// a token bound to it.
func AcquireReader(holder LockHolder, lock *EntityLock) *ReaderLockToken {
	lock.mu.RLock()

	return &ReaderLockToken{lock: lock, identity: holder.LockIdentity()}
}

// Release releases the read lock. Release is idempotent; calling it more
// than once is a no-op.
func (t *ReaderLockToken) Release() {
	if t.released {
		return
	}

	t.released = true
	t.lock.mu.RUnlock()
}

// CheckBinding verifies that t was acquired against holder, returning a
// LockError otherwise. Field getters call this before reading.
func (t *ReaderLockToken) CheckBinding(holder LockHolder) error {
	if t == nil || t.released {
		return dberrors.LockError("reader token is not held")
	}

	if t.identity != holder.LockIdentity() {
		return dberrors.LockError("reader token bound to a different entity")
	}

	return nil
}

// WriterLockToken is a scoped write-acquisition of an EntityLock. The zero
// value is not usable; construct with AcquireWriter.
type WriterLockToken struct {
	lock     *EntityLock
	identity *EntityLock
	released bool
}

// AcquireWriter blocks until a write lock on holder is acquired and
// returns a token bound to it.
func AcquireWriter(holder LockHolder, lock *EntityLock) *WriterLockToken {
	lock.mu.Lock()

	return &WriterLockToken{lock: lock, identity: holder.LockIdentity()}
}

// Release releases the write lock. Release is idempotent.
func (t *WriterLockToken) Release() {
	if t.released {
		return
	}

	t.released = true
	t.lock.mu.Unlock()
}

// CheckBinding verifies that t was acquired against holder, returning a
// LockError otherwise. Field setters call this before writing.
func (t *WriterLockToken) CheckBinding(holder LockHolder) error {
	if t == nil || t.released {
		return dberrors.LockError("writer token is not held")
	}

	if t.identity != holder.LockIdentity() {
		return dberrors.LockError("writer token bound to a different entity")
	}

	return nil
}
