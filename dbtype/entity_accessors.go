package dbtype

import (
	"github.com/mutgos/dbcore/concurrency"
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
)

func (e *Entity) requireContainer(tok *concurrency.ReaderLockToken) (*containerPayload, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	cp, ok := containerOf(e.payload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity has no container fields", e.typ)
	}

	return cp, nil
}

func (e *Entity) requireContainerWriter(tok *concurrency.WriterLockToken) (*containerPayload, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	cp, ok := containerOf(e.payload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity has no container fields", e.typ)
	}

	return cp, nil
}

// containerOf extracts the embedded containerPayload from whichever
// concrete subtype payload e carries, if any.
func containerOf(p kindPayload) (*containerPayload, bool) {
	switch v := p.(type) {
	case *containerPayload:
		return v, true
	case *thingPayload:
		return &v.containerPayload, true
	case *puppetPayload:
		return &v.containerPayload, true
	case *vehiclePayload:
		return &v.containerPayload, true
	case *playerPayload:
		return &v.containerPayload, true
	case *actionPayload:
		return &v.containerPayload, true
	case *groupPayload:
		return &v.containerPayload, true
	case *programPayload:
		return &v.containerPayload, true
	default:
		return nil, false
	}
}

// ContainedBy returns the weak back-reference to e's containing parent.
func (e *Entity) ContainedBy(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	cp, err := e.requireContainer(tok)
	if err != nil {
		return dbid.Id{}, err
	}

	return cp.containedBy, nil
}

// SetContainedBy updates e's containing parent under a writer token.
func (e *Entity) SetContainedBy(tok *concurrency.WriterLockToken, parent dbid.Id) error {
	cp, err := e.requireContainerWriter(tok)
	if err != nil {
		return err
	}

	old := cp.containedBy
	if err := e.notifyFieldChanged(tok, "contained_by"); err != nil {
		return err
	}

	cp.containedBy = parent
	e.notifyReferenceChanged("contained_by", old, parent)

	return nil
}

// LinkedPrograms returns the set of programs linked to e.
func (e *Entity) LinkedPrograms(tok *concurrency.ReaderLockToken) ([]dbid.Id, error) {
	cp, err := e.requireContainer(tok)
	if err != nil {
		return nil, err
	}

	out := make([]dbid.Id, 0, len(cp.linkedPrograms))
	for id := range cp.linkedPrograms {
		out = append(out, id)
	}

	return out, nil
}

// AddLinkedProgram adds program to e's linked-programs set under a writer
// token.
func (e *Entity) AddLinkedProgram(tok *concurrency.WriterLockToken, program dbid.Id) error {
	cp, err := e.requireContainerWriter(tok)
	if err != nil {
		return err
	}

	if err := e.notifyFieldChanged(tok, "linked_programs"); err != nil {
		return err
	}

	cp.linkedPrograms[program] = struct{}{}

	return nil
}

// ApplicationProperty returns the application properties for app, with
// false when the entity has none under that name; it does not create them.
func (e *Entity) ApplicationProperty(tok *concurrency.ReaderLockToken, app string) (*ApplicationProperties, bool, error) {
	cp, err := e.requireContainer(tok)
	if err != nil {
		return nil, false, err
	}

	ap, ok := cp.applicationProperties[app]

	return ap, ok, nil
}

// EnsureApplicationProperty returns the application properties for app,
// creating an empty one owned by owner if it doesn't already exist.
func (e *Entity) EnsureApplicationProperty(tok *concurrency.WriterLockToken, app string, owner dbid.Id) (*ApplicationProperties, error) {
	cp, err := e.requireContainerWriter(tok)
	if err != nil {
		return nil, err
	}

	ap, ok := cp.applicationProperties[app]
	if ok {
		return ap, nil
	}

	if err := e.notifyFieldChanged(tok, "application_properties"); err != nil {
		return nil, err
	}

	ap = NewApplicationProperties(app, owner)
	cp.applicationProperties[app] = ap

	return ap, nil
}

// ApplicationNames returns the names of every application with properties
// on e.
func (e *Entity) ApplicationNames(tok *concurrency.ReaderLockToken) ([]string, error) {
	cp, err := e.requireContainer(tok)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cp.applicationProperties))
	for name := range cp.applicationProperties {
		names = append(names, name)
	}

	return names, nil
}

// Home returns the home location of a Thing, Player, or Guest entity.
func (e *Entity) Home(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbid.Id{}, err
	}

	switch v := e.payload.(type) {
	case *thingPayload:
		return v.home, nil
	case *playerPayload:
		return v.home, nil
	default:
		return dbid.Id{}, dberrors.BadEntityType("%s entity has no home field", e.typ)
	}
}

// SetHome updates the home location of a Thing, Player, or Guest entity
// under a writer token.
func (e *Entity) SetHome(tok *concurrency.WriterLockToken, home dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	switch v := e.payload.(type) {
	case *thingPayload:
		if err := e.notifyFieldChanged(tok, "home"); err != nil {
			return err
		}

		v.home = home

		return nil
	case *playerPayload:
		if err := e.notifyFieldChanged(tok, "home"); err != nil {
			return err
		}

		v.home = home

		return nil
	default:
		return dberrors.BadEntityType("%s entity has no home field", e.typ)
	}
}

// ThingLock returns a Thing's use lock.
func (e *Entity) ThingLock(tok *concurrency.ReaderLockToken) (Lock, error) {
	if err := tok.CheckBinding(e); err != nil {
		return Lock{}, err
	}

	v, ok := e.payload.(*thingPayload)
	if !ok {
		return Lock{}, dberrors.BadEntityType("%s entity has no thing lock", e.typ)
	}

	return v.lock, nil
}

// SetThingLock replaces a Thing's use lock under a writer token.
func (e *Entity) SetThingLock(tok *concurrency.WriterLockToken, lock Lock) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*thingPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no thing lock", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "thing_lock"); err != nil {
		return err
	}

	v.lock = lock

	return nil
}

// DisplayName returns the display name of a Puppet, Player, or Guest.
func (e *Entity) DisplayName(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	switch v := e.payload.(type) {
	case *puppetPayload:
		return v.displayName, nil
	case *playerPayload:
		return v.displayName, nil
	default:
		return "", dberrors.BadEntityType("%s entity has no display name field", e.typ)
	}
}

// SetDisplayName updates the display name of a Puppet, Player, or Guest
// under a writer token.
func (e *Entity) SetDisplayName(tok *concurrency.WriterLockToken, name string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	switch v := e.payload.(type) {
	case *puppetPayload:
		if err := e.notifyFieldChanged(tok, "display_name"); err != nil {
			return err
		}

		v.displayName = name

		return nil
	case *playerPayload:
		if err := e.notifyFieldChanged(tok, "display_name"); err != nil {
			return err
		}

		v.displayName = name

		return nil
	default:
		return dberrors.BadEntityType("%s entity has no display name field", e.typ)
	}
}

// SetPasswordHash stores a Player/Guest's pre-hashed password and its
// per-site salt under a writer token. Hashing happens above this layer
// (spec §9); this setter only stores the result.
func (e *Entity) SetPasswordHash(tok *concurrency.WriterLockToken, hash, salt []byte) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*playerPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no password field", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "password"); err != nil {
		return err
	}

	v.passwordHash = append([]byte(nil), hash...)
	v.passwordSalt = append([]byte(nil), salt...)

	return nil
}

// PasswordHash returns a Player/Guest's stored password hash and salt.
func (e *Entity) PasswordHash(tok *concurrency.ReaderLockToken) (hash, salt []byte, err error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, nil, err
	}

	v, ok := e.payload.(*playerPayload)
	if !ok {
		return nil, nil, dberrors.BadEntityType("%s entity has no password field", e.typ)
	}

	return append([]byte(nil), v.passwordHash...), append([]byte(nil), v.passwordSalt...), nil
}

// VehicleInterior returns a Vehicle's interior room id.
func (e *Entity) VehicleInterior(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbid.Id{}, err
	}

	v, ok := e.payload.(*vehiclePayload)
	if !ok {
		return dbid.Id{}, dberrors.BadEntityType("%s entity is not a vehicle", e.typ)
	}

	return v.interior, nil
}

// SetVehicleInterior updates a Vehicle's interior room id under a writer
// token.
func (e *Entity) SetVehicleInterior(tok *concurrency.WriterLockToken, interior dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*vehiclePayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a vehicle", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "vehicle_interior"); err != nil {
		return err
	}

	v.interior = interior

	return nil
}

// VehicleController returns the entity currently piloting a Vehicle.
func (e *Entity) VehicleController(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbid.Id{}, err
	}

	v, ok := e.payload.(*vehiclePayload)
	if !ok {
		return dbid.Id{}, dberrors.BadEntityType("%s entity is not a vehicle", e.typ)
	}

	return v.controller, nil
}

// SetVehicleController updates the entity piloting a Vehicle under a writer
// token.
func (e *Entity) SetVehicleController(tok *concurrency.WriterLockToken, controller dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*vehiclePayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a vehicle", e.typ)
	}

	old := v.controller
	if err := e.notifyFieldChanged(tok, "vehicle_controller"); err != nil {
		return err
	}

	v.controller = controller
	e.notifyReferenceChanged("vehicle_controller", old, controller)

	return nil
}

// ActionContainedBy returns the container an Action/Exit is attached to.
func (e *Entity) ActionContainedBy(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return dbid.Id{}, err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dbid.Id{}, dberrors.BadEntityType("%s entity has no action container", e.typ)
	}

	return v.actionContainedBy, nil
}

// SetActionContainedBy updates the container an Action/Exit is attached to
// under a writer token.
func (e *Entity) SetActionContainedBy(tok *concurrency.WriterLockToken, container dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action container", e.typ)
	}

	old := v.actionContainedBy
	if err := e.notifyFieldChanged(tok, "action_contained_by"); err != nil {
		return err
	}

	v.actionContainedBy = container
	e.notifyReferenceChanged("action_contained_by", old, container)

	return nil
}

// ActionTargets returns an Action/Exit's ordered target set.
func (e *Entity) ActionTargets(tok *concurrency.ReaderLockToken) ([]dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity has no action targets", e.typ)
	}

	return append([]dbid.Id(nil), v.targets...), nil
}

// AddActionTarget appends target to an Action/Exit's target set under a
// writer token.
func (e *Entity) AddActionTarget(tok *concurrency.WriterLockToken, target dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action targets", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "action_targets"); err != nil {
		return err
	}

	v.targets = append(v.targets, target)

	return nil
}

// ActionCommands returns an Action/Exit's command alias list.
func (e *Entity) ActionCommands(tok *concurrency.ReaderLockToken) ([]string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity has no action commands", e.typ)
	}

	return append([]string(nil), v.commands...), nil
}

// SetActionCommands replaces an Action/Exit's command alias list under a
// writer token.
func (e *Entity) SetActionCommands(tok *concurrency.WriterLockToken, commands []string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action commands", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "action_commands"); err != nil {
		return err
	}

	v.commands = append([]string(nil), commands...)

	return nil
}

// ActionSuccessMessage returns the message shown when an Action/Exit fires
// successfully.
func (e *Entity) ActionSuccessMessage(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return "", dberrors.BadEntityType("%s entity has no action success message", e.typ)
	}

	return v.successMessage, nil
}

// SetActionSuccessMessage replaces an Action/Exit's success message under a
// writer token.
func (e *Entity) SetActionSuccessMessage(tok *concurrency.WriterLockToken, message string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action success message", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "action_success_message"); err != nil {
		return err
	}

	v.successMessage = message

	return nil
}

// ActionFailMessage returns the message shown when an Action/Exit declines
// to fire.
func (e *Entity) ActionFailMessage(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return "", dberrors.BadEntityType("%s entity has no action fail message", e.typ)
	}

	return v.failMessage, nil
}

// SetActionFailMessage replaces an Action/Exit's fail message under a
// writer token.
func (e *Entity) SetActionFailMessage(tok *concurrency.WriterLockToken, message string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action fail message", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "action_fail_message"); err != nil {
		return err
	}

	v.failMessage = message

	return nil
}

// ActionLock returns an Action/Exit's invocation lock.
func (e *Entity) ActionLock(tok *concurrency.ReaderLockToken) (Lock, error) {
	if err := tok.CheckBinding(e); err != nil {
		return Lock{}, err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return Lock{}, dberrors.BadEntityType("%s entity has no action lock", e.typ)
	}

	return v.lock, nil
}

// SetActionLock replaces an Action/Exit's invocation lock under a writer
// token.
func (e *Entity) SetActionLock(tok *concurrency.WriterLockToken, lock Lock) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*actionPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity has no action lock", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "action_lock"); err != nil {
		return err
	}

	v.lock = lock

	return nil
}

// GroupMembers returns a Group's membership set.
func (e *Entity) GroupMembers(tok *concurrency.ReaderLockToken) ([]dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	v, ok := e.payload.(*groupPayload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity is not a group", e.typ)
	}

	out := make([]dbid.Id, 0, len(v.members))
	for id := range v.members {
		out = append(out, id)
	}

	return out, nil
}

// AddGroupMember adds member to a Group's membership set under a writer
// token.
func (e *Entity) AddGroupMember(tok *concurrency.WriterLockToken, member dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*groupPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a group", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "members"); err != nil {
		return err
	}

	v.members[member] = struct{}{}

	return nil
}

// IsGroupMember reports whether candidate is a member of e, which must be
// a Group. It satisfies dbtype.GroupMembershipChecker when called via a
// closure from the primitives layer.
func (e *Entity) IsGroupMember(tok *concurrency.ReaderLockToken, candidate dbid.Id) (bool, error) {
	if err := tok.CheckBinding(e); err != nil {
		return false, err
	}

	v, ok := e.payload.(*groupPayload)
	if !ok {
		return false, dberrors.BadEntityType("%s entity is not a group", e.typ)
	}

	_, found := v.members[candidate]

	return found, nil
}

// ProgramSource returns a Program's source-code document.
func (e *Entity) ProgramSource(tok *concurrency.ReaderLockToken) (PropertyData, error) {
	if err := tok.CheckBinding(e); err != nil {
		return PropertyData{}, err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return PropertyData{}, dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	return v.sourceCode.Clone(), nil
}

// SetProgramSource replaces a Program's source-code document under a
// writer token.
func (e *Entity) SetProgramSource(tok *concurrency.WriterLockToken, doc PropertyData) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if doc.Variant() != VariantDocument {
		return dberrors.BadArguments("program source must be a document")
	}

	if err := e.notifyFieldChanged(tok, "program_source_code"); err != nil {
		return err
	}

	v.sourceCode = doc.Clone()

	return nil
}

// ProgramCompiled returns a Program's compiled-code blob.
func (e *Entity) ProgramCompiled(tok *concurrency.ReaderLockToken) ([]byte, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	return append([]byte(nil), v.compiled...), nil
}

// SetProgramCompiled replaces a Program's compiled-code blob under a
// writer token.
func (e *Entity) SetProgramCompiled(tok *concurrency.WriterLockToken, code []byte) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "program_compiled_code"); err != nil {
		return err
	}

	v.compiled = append([]byte(nil), code...)

	return nil
}

// ProgramIncludes returns a Program's include set.
func (e *Entity) ProgramIncludes(tok *concurrency.ReaderLockToken) ([]dbid.Id, error) {
	if err := tok.CheckBinding(e); err != nil {
		return nil, err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return nil, dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	out := make([]dbid.Id, 0, len(v.includes))
	for id := range v.includes {
		out = append(out, id)
	}

	return out, nil
}

// FirstProgramInclude returns the lowest id (by Id.Less) of a Program's
// include set, or the default Id when the set is empty.
func (e *Entity) FirstProgramInclude(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	includes, err := e.ProgramIncludes(tok)
	if err != nil {
		return dbid.Id{}, err
	}

	if len(includes) == 0 {
		return dbid.Default, nil
	}

	first := includes[0]
	for _, id := range includes[1:] {
		if id.Less(first) {
			first = id
		}
	}

	return first, nil
}

// LastProgramInclude returns the highest id (by Id.Less) of a Program's
// include set, or the default Id when the set is empty.
func (e *Entity) LastProgramInclude(tok *concurrency.ReaderLockToken) (dbid.Id, error) {
	includes, err := e.ProgramIncludes(tok)
	if err != nil {
		return dbid.Id{}, err
	}

	if len(includes) == 0 {
		return dbid.Default, nil
	}

	last := includes[0]
	for _, id := range includes[1:] {
		if last.Less(id) {
			last = id
		}
	}

	return last, nil
}

// AddProgramInclude adds include to a Program's include set under a
// writer token.
func (e *Entity) AddProgramInclude(tok *concurrency.WriterLockToken, include dbid.Id) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "program_includes"); err != nil {
		return err
	}

	v.includes[include] = struct{}{}

	return nil
}

// ProgramLanguage returns the name of the language a Program is written in.
func (e *Entity) ProgramLanguage(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return "", dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	return v.language, nil
}

// SetProgramLanguage replaces the name of the language a Program is
// written in under a writer token.
func (e *Entity) SetProgramLanguage(tok *concurrency.WriterLockToken, language string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "program_language"); err != nil {
		return err
	}

	v.language = language

	return nil
}

// ProgramRuntimeSeconds returns the accumulated execution time, in seconds,
// charged against a Program.
func (e *Entity) ProgramRuntimeSeconds(tok *concurrency.ReaderLockToken) (float64, error) {
	if err := tok.CheckBinding(e); err != nil {
		return 0, err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return 0, dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	return v.runtimeSec, nil
}

// SetProgramRuntimeSeconds replaces a Program's accumulated execution time,
// in seconds, under a writer token.
func (e *Entity) SetProgramRuntimeSeconds(tok *concurrency.WriterLockToken, seconds float64) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "program_runtime_sec"); err != nil {
		return err
	}

	v.runtimeSec = seconds

	return nil
}

// ProgramRegistrationName returns a Program's registration name, the
// well-known name other programs resolve it by.
func (e *Entity) ProgramRegistrationName(tok *concurrency.ReaderLockToken) (string, error) {
	if err := tok.CheckBinding(e); err != nil {
		return "", err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return "", dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	return v.regName, nil
}

// SetProgramRegistrationName replaces a Program's registration name under a
// writer token.
func (e *Entity) SetProgramRegistrationName(tok *concurrency.WriterLockToken, name string) error {
	if err := tok.CheckBinding(e); err != nil {
		return err
	}

	v, ok := e.payload.(*programPayload)
	if !ok {
		return dberrors.BadEntityType("%s entity is not a program", e.typ)
	}

	if err := e.notifyFieldChanged(tok, "program_reg_name"); err != nil {
		return err
	}

	v.regName = name

	return nil
}
