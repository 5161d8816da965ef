package dbtype

import (
	"fmt"

	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtime"
)

// EntityType names one member of the polymorphic Entity hierarchy (spec
// §3.2).
type EntityType uint8

const (
	// TypeEntity is the bare base type.
	TypeEntity EntityType = iota
	// TypePropertyEntity carries application properties.
	TypePropertyEntity
	// TypeContainerPropertyEntity additionally tracks a containing
	// parent and linked programs.
	TypeContainerPropertyEntity
	// TypeThing is a plain in-world object.
	TypeThing
	// TypePuppet is a player-controlled non-player object.
	TypePuppet
	// TypeVehicle carries passengers between rooms.
	TypeVehicle
	// TypePlayer is a player account.
	TypePlayer
	// TypeGuest is an unregistered, ephemeral player.
	TypeGuest
	// TypeAction is an invokable verb attached to a container.
	TypeAction
	// TypeExit connects two rooms.
	TypeExit
	// TypeRoom is a container with no home of its own.
	TypeRoom
	// TypeRegion is a top-level container with no parent within the
	// site.
	TypeRegion
	// TypeGroup is a named membership set.
	TypeGroup
	// TypeCapability is a system-defined permission token.
	TypeCapability
	// TypeProgram is executable code plus its compiled form.
	TypeProgram
)

// String renders the type's name, used in diagnostics and dump files.
func (t EntityType) String() string {
	switch t {
	case TypeEntity:
		return "entity"
	case TypePropertyEntity:
		return "property_entity"
	case TypeContainerPropertyEntity:
		return "container_property_entity"
	case TypeThing:
		return "thing"
	case TypePuppet:
		return "puppet"
	case TypeVehicle:
		return "vehicle"
	case TypePlayer:
		return "player"
	case TypeGuest:
		return "guest"
	case TypeAction:
		return "action"
	case TypeExit:
		return "exit"
	case TypeRoom:
		return "room"
	case TypeRegion:
		return "region"
	case TypeGroup:
		return "group"
	case TypeCapability:
		return "capability"
	case TypeProgram:
		return "program"
	default:
		return "unknown"
	}
}

// changedField is a per-entity change-list record (spec §4.3: setters
// record the field id on a per-entity change list).
type changedField struct {
	Field string
}

// referenceChange records an added or removed id on a reference field, so
// the backend can maintain reverse indexes (spec §4.3 item 4).
type referenceChange struct {
	Field   string
	Removed dbid.Id
	Added   dbid.Id
}

// Entity is the polymorphic root record. Core fields are always present;
// Kind-specific fields live in the payload selected by Type.
type Entity struct {
	concurrency.EntityLock

	id       dbid.Id
	typ      EntityType
	version  uint32
	instance uint32

	name                 string
	owner                dbid.Id
	note                 string
	registrationName     string
	registrationCategory string
	flags                map[string]struct{}
	security             Security

	created  dbtime.TimeStamp
	modified dbtime.TimeStamp
	accessed dbtime.TimeStamp

	dirty           bool
	changedFields   []changedField
	referenceDeltas []referenceChange

	payload kindPayload
}

// kindPayload is implemented by each subtype's field bundle.
type kindPayload interface {
	entityType() EntityType
	clone() kindPayload
}

// NewEntity constructs a bare Entity of the given type with id/owner/name
// set and an empty payload appropriate to typ. version and instance start
// at 1, matching first-construction semantics.
func NewEntity(id dbid.Id, typ EntityType, owner dbid.Id, name string) (*Entity, error) {
	if name == "" {
		return nil, dberrors.BadArguments("entity name must not be empty")
	}

	e := &Entity{
		id:       id,
		typ:      typ,
		version:  1,
		instance: 1,
		name:     name,
		owner:    owner,
		flags:    make(map[string]struct{}),
		created:  dbtime.Now(),
		modified: dbtime.Now(),
		accessed: dbtime.Now(),
		dirty:    true,
	}

	payload, err := newPayloadFor(typ)
	if err != nil {
		return nil, err
	}

	e.payload = payload

	return e, nil
}

// LockIdentity implements concurrency.LockHolder by delegating to the
// embedded EntityLock.
func (e *Entity) LockIdentity() *concurrency.EntityLock {
	return &e.EntityLock
}

// ID returns the entity's immutable id.
func (e *Entity) ID() dbid.Id { return e.id }

// Type returns the entity's immutable type.
func (e *Entity) Type() EntityType { return e.typ }

// Version returns the entity's monotone version counter.
func (e *Entity) Version() uint32 { return e.version }

// Instance returns the entity's monotone instance counter.
func (e *Entity) Instance() uint32 { return e.instance }

func (e *Entity) notifyFieldChanged(token *concurrency.WriterLockToken, field string) error {
	if err := token.CheckBinding(e); err != nil {
		return err
	}

	e.changedFields = append(e.changedFields, changedField{Field: field})
	e.dirty = true
	e.modified = dbtime.Now()

	return nil
}

func (e *Entity) notifyReferenceChanged(field string, removed, added dbid.Id) {
	e.referenceDeltas = append(e.referenceDeltas, referenceChange{Field: field, Removed: removed, Added: added})
}

// IsDirty reports whether e has unpersisted changes.
func (e *Entity) IsDirty() bool { return e.dirty }

// ClearDirty resets the dirty bit and change lists, called by
// DatabaseAccess.CommitAll after the backend has persisted e.
func (e *Entity) ClearDirty() {
	e.dirty = false
	e.changedFields = nil
	e.referenceDeltas = nil
}

// ChangedFieldNames returns the names of fields changed since the last
// ClearDirty, for the backend's partial-persist optimisation.
func (e *Entity) ChangedFieldNames() []string {
	names := make([]string, len(e.changedFields))
	for i, c := range e.changedFields {
		names[i] = c.Field
	}

	return names
}

// Name returns e's name, requiring a reader token (a writer token is not
// accepted).
func (e *Entity) Name(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	return e.name, nil
}

// SetName updates e's name under a writer token. Name must not be empty.
func (e *Entity) SetName(tok *concurrency.WriterLockToken, name string) error {
	if name == "" {
		return dberrors.BadArguments("entity name must not be empty")
	}

	if err := e.notifyFieldChanged(tok, "name"); err != nil {
		return err
	}

	e.name = name

	return nil
}

// Owner returns e's owner, requiring a reader token (a writer token is not
// accepted).
func (e *Entity) Owner(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbid.Id{}, err
	}

	return e.owner, nil
}

// SetOwner updates e's owner under a writer token, recording the
// reference change for the backend's reverse index.
func (e *Entity) SetOwner(tok *concurrency.WriterLockToken, owner dbid.Id) error {
	old := e.owner
	if err := e.notifyFieldChanged(tok, "owner"); err != nil {
		return err
	}

	e.owner = owner
	e.notifyReferenceChanged("owner", old, owner)

	return nil
}

// Note returns e's free-form note, requiring a reader token (a writer token
// is not accepted).
func (e *Entity) Note(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	return e.note, nil
}

// SetNote updates e's free-form note under a writer token.
func (e *Entity) SetNote(tok *concurrency.WriterLockToken, note string) error {
	if err := e.notifyFieldChanged(tok, "note"); err != nil {
		return err
	}

	e.note = note

	return nil
}

// RegistrationName returns e's registration name, requiring a reader token
// (a writer token is not accepted).
func (e *Entity) RegistrationName(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	return e.registrationName, nil
}

// SetRegistrationName updates e's registration name under a writer token.
func (e *Entity) SetRegistrationName(tok *concurrency.WriterLockToken, name string) error {
	if err := e.notifyFieldChanged(tok, "registration_name"); err != nil {
		return err
	}

	e.registrationName = name

	return nil
}

// RegistrationCategory returns e's registration category, requiring a
// reader token (a writer token is not accepted).
func (e *Entity) RegistrationCategory(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	return e.registrationCategory, nil
}

// SetRegistrationCategory updates e's registration category under a
// writer token.
func (e *Entity) SetRegistrationCategory(tok *concurrency.WriterLockToken, category string) error {
	if err := e.notifyFieldChanged(tok, "registration_category"); err != nil {
		return err
	}

	e.registrationCategory = category

	return nil
}

// Flags returns a copy of e's free-form tag set, requiring a reader token
// (a writer token is not accepted).
func (e *Entity) Flags(tok *concurrency.ReaderLockToken) ([]string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(e.flags))
	for f := range e.flags {
		out = append(out, f)
	}

	return out, nil
}

// AddFlag adds flag to e's tag set under a writer token.
func (e *Entity) AddFlag(tok *concurrency.WriterLockToken, flag string) error {
	if err := e.notifyFieldChanged(tok, "flags"); err != nil {
		return err
	}

	e.flags[flag] = struct{}{}

	return nil
}

// RemoveFlag removes flag from e's tag set under a writer token.
func (e *Entity) RemoveFlag(tok *concurrency.WriterLockToken, flag string) error {
	if err := e.notifyFieldChanged(tok, "flags"); err != nil {
		return err
	}

	delete(e.flags, flag)

	return nil
}

// Security returns a copy of e's security record, requiring a reader token
// (a writer token is not accepted).
func (e *Entity) Security(tok *concurrency.ReaderLockToken) (Security, error) {
	if err := tok.CheckBinding(e); err != nil {
		return Security{}, err
	}

	return e.security, nil
}

// SetSecurity replaces e's security record under a writer token.
func (e *Entity) SetSecurity(tok *concurrency.WriterLockToken, sec Security) error {
	if err := e.notifyFieldChanged(tok, "security"); err != nil {
		return err
	}

	e.security = sec

	return nil
}

// Created returns e's creation timestamp, requiring a reader token (a
// writer token is not accepted).
func (e *Entity) Created(tok *concurrency.ReaderLockToken) (dbtime.TimeStamp, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbtime.TimeStamp{}, err
	}

	return e.created, nil
}

// Modified returns e's last-modified timestamp, requiring a reader token
// (a writer token is not accepted).
func (e *Entity) Modified(tok *concurrency.ReaderLockToken) (dbtime.TimeStamp, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbtime.TimeStamp{}, err
	}

	return e.modified, nil
}

// Touch updates e's accessed timestamp, requiring a reader token (a writer
// token is not accepted). Unlike other setters this does not mark the entity dirty: access
// time is a cache-friendliness hint, not persisted state.
func (e *Entity) Touch(tok *concurrency.ReaderLockToken) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	e.accessed = dbtime.Now()

	return nil
}

// ToString renders a diagnostic one-line summary of e.
func (e *Entity) ToString() string {
	return fmt.Sprintf("%s [%s] %q owner=%s v%d.%d", e.id, e.typ, e.name, e.owner, e.version, e.instance)
}

// MemUsed estimates e's memory footprint in bytes, covering core fields
// only; subtype payloads add their own estimate via payload.
func (e *Entity) MemUsed() int {
	n := 64 + len(e.name) + len(e.note) + len(e.registrationName) + len(e.registrationCategory)
	for f := range e.flags {
		n += len(f) + 8
	}

	if mu, ok := e.payload.(memEstimator); ok {
		n += mu.memUsed()
	}

	return n
}

type memEstimator interface {
	memUsed() int
}

// CloneWithNewIdentity produces a deep copy of e bound to a new id, with
// version and instance reset to 1 and every field marked changed (spec
// §4.3: "Clone copies all fields, marks every field changed, and produces
// an entity with no live references").
func (e *Entity) CloneWithNewIdentity(newID dbid.Id) *Entity {
	clone := &Entity{
		id:                   newID,
		typ:                  e.typ,
		version:              1,
		instance:             1,
		name:                 e.name,
		owner:                e.owner,
		note:                 e.note,
		registrationName:     e.registrationName,
		registrationCategory: e.registrationCategory,
		security:             e.security,
		created:              dbtime.Now(),
		modified:             dbtime.Now(),
		accessed:             dbtime.Now(),
		dirty:                true,
		flags:                make(map[string]struct{}, len(e.flags)),
		payload:              e.payload.clone(),
	}

	for f := range e.flags {
		clone.flags[f] = struct{}{}
	}

	clone.changedFields = []changedField{{Field: "*"}}

	return clone
}
