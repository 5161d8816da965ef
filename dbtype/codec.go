package dbtype

import (
	"time"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtime"
	"github.com/vmihailenco/msgpack/v5"
)

func unixNano(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

// entityWire is the msgpack-serialisable shadow of Entity, flattening the
// polymorphic payload hierarchy into one optional-field record, mirroring
// propertydata.go's wireForm pattern at the entity's larger scope. A
// backend persists entityWire bytes keyed by id; it never needs to know
// about kindPayload's concrete subtypes.
type entityWire struct {
	SiteID   uint32     `msgpack:"site"`
	EntID    uint32     `msgpack:"ent"`
	Type     EntityType `msgpack:"typ"`
	Version  uint32     `msgpack:"ver"`
	Instance uint32     `msgpack:"inst"`

	Name                 string   `msgpack:"name"`
	OwnerSite            uint32   `msgpack:"osite,omitempty"`
	OwnerEnt             uint32   `msgpack:"oent,omitempty"`
	Note                 string   `msgpack:"note,omitempty"`
	RegistrationName     string   `msgpack:"regname,omitempty"`
	RegistrationCategory string   `msgpack:"regcat,omitempty"`
	Flags                []string `msgpack:"flags,omitempty"`
	Security             secWire  `msgpack:"sec"`

	CreatedUnixNano  int64 `msgpack:"created"`
	ModifiedUnixNano int64 `msgpack:"modified"`
	AccessedUnixNano int64 `msgpack:"accessed"`

	ContainedBySite       uint32       `msgpack:"cbsite,omitempty"`
	ContainedByEnt        uint32       `msgpack:"cbent,omitempty"`
	LinkedPrograms        []idWire     `msgpack:"linked,omitempty"`
	ApplicationProperties []appWire    `msgpack:"apps,omitempty"`

	HomeSite          uint32   `msgpack:"homesite,omitempty"`
	HomeEnt           uint32   `msgpack:"homeent,omitempty"`
	DisplayName       string   `msgpack:"display,omitempty"`
	PasswordHash      []byte   `msgpack:"pwhash,omitempty"`
	PasswordSalt      []byte   `msgpack:"pwsalt,omitempty"`
	InteriorSite      uint32   `msgpack:"intsite,omitempty"`
	InteriorEnt       uint32   `msgpack:"intent,omitempty"`
	ControllerSite    uint32   `msgpack:"ctrlsite,omitempty"`
	ControllerEnt     uint32   `msgpack:"ctrlent,omitempty"`
	ThingLock         *lockWire `msgpack:"thinglock,omitempty"`
	ActionTargets     []idWire  `msgpack:"targets,omitempty"`
	ActionCommands    []string  `msgpack:"cmds,omitempty"`
	ActionSuccessMsg  string    `msgpack:"okmsg,omitempty"`
	ActionFailMsg     string    `msgpack:"failmsg,omitempty"`
	ActionLock        *lockWire `msgpack:"actionlock,omitempty"`
	GroupMembers      []idWire  `msgpack:"members,omitempty"`
	ProgramLanguage   string    `msgpack:"lang,omitempty"`
	ProgramSource     *wireForm `msgpack:"src,omitempty"`
	ProgramCompiled   []byte    `msgpack:"compiled,omitempty"`
	ProgramIncludes   []idWire  `msgpack:"includes,omitempty"`
	ProgramRuntimeSec float64   `msgpack:"runtime,omitempty"`
	ProgramRegName    string    `msgpack:"progreg,omitempty"`
}

type idWire struct {
	Site uint32 `msgpack:"s"`
	Ent  uint32 `msgpack:"e"`
}

func idToWire(id dbid.Id) idWire { return idWire{Site: id.SiteID(), Ent: id.EntityID()} }
func idFromWire(w idWire) dbid.Id { return dbid.New(w.Site, w.Ent) }

func idsToWire(ids []dbid.Id) []idWire {
	if len(ids) == 0 {
		return nil
	}

	out := make([]idWire, len(ids))
	for i, id := range ids {
		out[i] = idToWire(id)
	}

	return out
}

func idsFromWire(ws []idWire) []dbid.Id {
	if len(ws) == 0 {
		return nil
	}

	out := make([]dbid.Id, len(ws))
	for i, w := range ws {
		out[i] = idFromWire(w)
	}

	return out
}

type secWire struct {
	AdminIDs   []idWire `msgpack:"admins,omitempty"`
	ListIDs    []idWire `msgpack:"list,omitempty"`
	ListFlags  Flag     `msgpack:"listflags,omitempty"`
	OtherFlags Flag     `msgpack:"otherflags,omitempty"`
}

func secToWire(s Security) secWire {
	return secWire{
		AdminIDs:   idsToWire(s.adminIDs),
		ListIDs:    idsToWire(s.listIDs),
		ListFlags:  s.listFlags,
		OtherFlags: s.otherFlags,
	}
}

func secFromWire(w secWire) Security {
	return Security{
		adminIDs:   idsFromWire(w.AdminIDs),
		listIDs:    idsFromWire(w.ListIDs),
		listFlags:  w.ListFlags,
		otherFlags: w.OtherFlags,
	}
}

func propSecToWire(p PropertySecurity) secWire { return secToWire(p.sec) }
func propSecFromWire(w secWire) PropertySecurity { return PropertySecurity{sec: secFromWire(w)} }

type lockWire struct {
	Kind   LockType `msgpack:"kind"`
	ID     idWire   `msgpack:"id,omitempty"`
	Path   string   `msgpack:"path,omitempty"`
	Value  *wireForm `msgpack:"value,omitempty"`
	Negate bool     `msgpack:"negate,omitempty"`
}

func lockToWire(l Lock) *lockWire {
	w := &lockWire{Kind: l.kind, ID: idToWire(l.id), Path: l.path, Negate: l.negate}

	if l.kind == LockByProperty {
		v := l.value.toWire()
		w.Value = &v
	}

	return w
}

func lockFromWire(w *lockWire) Lock {
	if w == nil {
		return Lock{}
	}

	l := Lock{kind: w.Kind, id: idFromWire(w.ID), path: w.Path, negate: w.Negate}

	if w.Value != nil {
		l.value = fromWire(*w.Value)
	}

	return l
}

// directoryEntryWire is one flattened (path, value) pair from a
// PropertyDirectory, walked depth-first; reconstructing calls Set for each
// in order, which recreates the intermediate directory structure.
type directoryEntryWire struct {
	Path  string   `msgpack:"p"`
	Value wireForm `msgpack:"v"`
}

func directoryToWire(d *PropertyDirectory) []directoryEntryWire {
	var out []directoryEntryWire

	collectDirectory(d, "", &out)

	return out
}

func collectDirectory(d *PropertyDirectory, prefix string, out *[]directoryEntryWire) {
	d.mu.Lock()
	names := append([]string(nil), d.order...)
	d.mu.Unlock()

	for _, name := range names {
		d.mu.Lock()
		e := d.entries[name]
		d.mu.Unlock()

		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}

		if e.value != nil {
			*out = append(*out, directoryEntryWire{Path: path, Value: e.value.toWire()})
		}

		if e.children != nil {
			collectDirectory(e.children, path, out)
		}
	}
}

func directoryFromWire(entries []directoryEntryWire) *PropertyDirectory {
	d := NewPropertyDirectory()

	for _, e := range entries {
		_ = d.Set(e.Path, fromWire(e.Value))
	}

	return d
}

type appWire struct {
	Name      string                `msgpack:"name"`
	OwnerSite uint32                `msgpack:"osite"`
	OwnerEnt  uint32                `msgpack:"oent"`
	Security  secWire               `msgpack:"sec"`
	Entries   []directoryEntryWire  `msgpack:"entries,omitempty"`
}

func appToWire(ap *ApplicationProperties) appWire {
	return appWire{
		Name:      ap.name,
		OwnerSite: ap.owner.SiteID(),
		OwnerEnt:  ap.owner.EntityID(),
		Security:  propSecToWire(ap.security),
		Entries:   directoryToWire(ap.directory),
	}
}

func appFromWire(w appWire) *ApplicationProperties {
	ap := NewApplicationProperties(w.Name, dbid.New(w.OwnerSite, w.OwnerEnt))
	ap.security = propSecFromWire(w.Security)
	ap.directory = directoryFromWire(w.Entries)

	return ap
}

// MarshalEntity serialises e's full state (core fields plus whichever
// subtype payload it carries) to msgpack bytes, for a backend's at-rest
// representation. It takes no lock token and acquires no entity lock.
func MarshalEntity(e *Entity) ([]byte, error) {
	w := entityWire{
		SiteID:   e.id.SiteID(),
		EntID:    e.id.EntityID(),
		Type:     e.typ,
		Version:  e.version,
		Instance: e.instance,

		Name:                 e.name,
		OwnerSite:            e.owner.SiteID(),
		OwnerEnt:             e.owner.EntityID(),
		Note:                 e.note,
		RegistrationName:     e.registrationName,
		RegistrationCategory: e.registrationCategory,
		Security:             secToWire(e.security),

		CreatedUnixNano:  e.created.Time().UnixNano(),
		ModifiedUnixNano: e.modified.Time().UnixNano(),
		AccessedUnixNano: e.accessed.Time().UnixNano(),
	}

	for f := range e.flags {
		w.Flags = append(w.Flags, f)
	}

	if cp, ok := containerOf(e.payload); ok {
		w.ContainedBySite = cp.containedBy.SiteID()
		w.ContainedByEnt = cp.containedBy.EntityID()

		for id := range cp.linkedPrograms {
			w.LinkedPrograms = append(w.LinkedPrograms, idToWire(id))
		}

		for _, ap := range cp.applicationProperties {
			w.ApplicationProperties = append(w.ApplicationProperties, appToWire(ap))
		}
	}

	switch v := e.payload.(type) {
	case *thingPayload:
		w.HomeSite, w.HomeEnt = v.home.SiteID(), v.home.EntityID()
		w.ThingLock = lockToWire(v.lock)
	case *puppetPayload:
		w.DisplayName = v.displayName
	case *vehiclePayload:
		w.InteriorSite, w.InteriorEnt = v.interior.SiteID(), v.interior.EntityID()
		w.ControllerSite, w.ControllerEnt = v.controller.SiteID(), v.controller.EntityID()
	case *playerPayload:
		w.HomeSite, w.HomeEnt = v.home.SiteID(), v.home.EntityID()
		w.DisplayName = v.displayName
		w.PasswordHash = v.passwordHash
		w.PasswordSalt = v.passwordSalt
	case *actionPayload:
		w.ActionTargets = idsToWire(v.targets)
		w.ActionCommands = v.commands
		w.ActionSuccessMsg = v.successMessage
		w.ActionFailMsg = v.failMessage
		w.ActionLock = lockToWire(v.lock)
	case *groupPayload:
		for id := range v.members {
			w.GroupMembers = append(w.GroupMembers, idToWire(id))
		}
	case *programPayload:
		w.ProgramLanguage = v.language
		src := v.sourceCode.toWire()
		w.ProgramSource = &src
		w.ProgramCompiled = v.compiled
		for id := range v.includes {
			w.ProgramIncludes = append(w.ProgramIncludes, idToWire(id))
		}
		w.ProgramRuntimeSec = v.runtimeSec
		w.ProgramRegName = v.regName
	}

	data, err := msgpack.Marshal(w)
	if err != nil {
		return nil, dberrors.DatabaseError(err, "marshal entity")
	}

	return data, nil
}

// UnmarshalEntity is MarshalEntity's inverse, reconstructing an Entity with
// its dirty bit clear (the backend's view is, by definition, the last
// persisted state).
func UnmarshalEntity(data []byte) (*Entity, error) {
	var w entityWire
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, dberrors.DatabaseError(err, "unmarshal entity")
	}

	payload, err := newPayloadFor(w.Type)
	if err != nil {
		return nil, err
	}

	e := &Entity{
		id:       dbid.New(w.SiteID, w.EntID),
		typ:      w.Type,
		version:  w.Version,
		instance: w.Instance,

		name:                 w.Name,
		owner:                dbid.New(w.OwnerSite, w.OwnerEnt),
		note:                 w.Note,
		registrationName:     w.RegistrationName,
		registrationCategory: w.RegistrationCategory,
		flags:                make(map[string]struct{}, len(w.Flags)),
		security:             secFromWire(w.Security),

		created:  dbtime.FromTime(unixNano(w.CreatedUnixNano)),
		modified: dbtime.FromTime(unixNano(w.ModifiedUnixNano)),
		accessed: dbtime.FromTime(unixNano(w.AccessedUnixNano)),

		payload: payload,
	}

	for _, f := range w.Flags {
		e.flags[f] = struct{}{}
	}

	if cp, ok := containerOf(e.payload); ok {
		cp.containedBy = dbid.New(w.ContainedBySite, w.ContainedByEnt)

		for _, id := range w.LinkedPrograms {
			cp.linkedPrograms[idFromWire(id)] = struct{}{}
		}

		for _, aw := range w.ApplicationProperties {
			cp.applicationProperties[aw.Name] = appFromWire(aw)
		}
	}

	switch v := e.payload.(type) {
	case *thingPayload:
		v.home = dbid.New(w.HomeSite, w.HomeEnt)
		v.lock = lockFromWire(w.ThingLock)
	case *puppetPayload:
		v.displayName = w.DisplayName
	case *vehiclePayload:
		v.interior = dbid.New(w.InteriorSite, w.InteriorEnt)
		v.controller = dbid.New(w.ControllerSite, w.ControllerEnt)
	case *playerPayload:
		v.home = dbid.New(w.HomeSite, w.HomeEnt)
		v.displayName = w.DisplayName
		v.passwordHash = w.PasswordHash
		v.passwordSalt = w.PasswordSalt
	case *actionPayload:
		v.targets = idsFromWire(w.ActionTargets)
		v.commands = w.ActionCommands
		v.successMessage = w.ActionSuccessMsg
		v.failMessage = w.ActionFailMsg
		v.lock = lockFromWire(w.ActionLock)
	case *groupPayload:
		for _, id := range w.GroupMembers {
			v.members[idFromWire(id)] = struct{}{}
		}
	case *programPayload:
		v.language = w.ProgramLanguage
		if w.ProgramSource != nil {
			v.sourceCode = fromWire(*w.ProgramSource)
		}
		v.compiled = w.ProgramCompiled
		for _, id := range w.ProgramIncludes {
			v.includes[idFromWire(id)] = struct{}{}
		}
		v.runtimeSec = w.ProgramRuntimeSec
		v.regName = w.ProgramRegName
	}

	return e, nil
}
