package dbtype

import (
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
)

func newPayloadFor(typ EntityType) (kindPayload, error) {
	switch typ {
	case TypeEntity:
		return &basePayload{}, nil
	case TypePropertyEntity:
		return &propertyPayload{applicationProperties: make(map[string]*ApplicationProperties)}, nil
	case TypeContainerPropertyEntity, TypeRoom, TypeRegion:
		return &containerPayload{
			propertyPayload: propertyPayload{applicationProperties: make(map[string]*ApplicationProperties)},
			typ:             typ,
			linkedPrograms:  make(map[dbid.Id]struct{}),
		}, nil
	case TypeThing:
		return &thingPayload{containerPayload: newContainerPayload(TypeThing)}, nil
	case TypePuppet:
		return &puppetPayload{containerPayload: newContainerPayload(TypePuppet)}, nil
	case TypeVehicle:
		return &vehiclePayload{containerPayload: newContainerPayload(TypeVehicle)}, nil
	case TypePlayer:
		return &playerPayload{containerPayload: newContainerPayload(TypePlayer)}, nil
	case TypeGuest:
		return &playerPayload{containerPayload: newContainerPayload(TypeGuest)}, nil
	case TypeExit:
		return &actionPayload{containerPayload: newContainerPayload(TypeExit)}, nil
	case TypeAction:
		return &actionPayload{containerPayload: newContainerPayload(TypeAction)}, nil
	case TypeGroup:
		return &groupPayload{containerPayload: newContainerPayload(TypeGroup), members: make(map[dbid.Id]struct{})}, nil
	case TypeCapability:
		return &basePayload{}, nil
	case TypeProgram:
		return &programPayload{containerPayload: newContainerPayload(TypeProgram), includes: make(map[dbid.Id]struct{})}, nil
	default:
		return nil, dberrors.BadArguments("unknown entity type %d", typ)
	}
}

// basePayload backs TypeEntity and TypeCapability, which add no fields
// beyond the core record.
type basePayload struct{}

func (p *basePayload) entityType() EntityType { return TypeEntity }
func (p *basePayload) clone() kindPayload     { return &basePayload{} }

// propertyPayload backs TypePropertyEntity: a named set of application
// property subtrees (spec §3.4).
type propertyPayload struct {
	applicationProperties map[string]*ApplicationProperties
}

func (p *propertyPayload) entityType() EntityType { return TypePropertyEntity }

func (p *propertyPayload) clone() kindPayload {
	cp := &propertyPayload{applicationProperties: make(map[string]*ApplicationProperties, len(p.applicationProperties))}
	for k, v := range p.applicationProperties {
		cloned := *v
		cloned.directory = directoryFromWire(directoryToWire(v.directory))
		cp.applicationProperties[k] = &cloned
	}

	return cp
}

func (p *propertyPayload) memUsed() int {
	n := 0
	for name, ap := range p.applicationProperties {
		n += len(name) + 32 + ap.directory.memUsedApprox()
	}

	return n
}

// memUsedApprox gives a rough byte estimate of a directory's contents,
// used by PropertyEntity's MemUsed.
func (d *PropertyDirectory) memUsedApprox() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0

	for _, e := range d.entries {
		if e.value != nil {
			n += e.value.MemUsed()
		}

		if e.children != nil {
			n += e.children.memUsedApprox()
		}
	}

	return n
}

// containerPayload backs TypeContainerPropertyEntity and every subtype
// derived from it: a weak back-reference to the containing parent plus
// the set of linked programs (spec §3.2).
type containerPayload struct {
	propertyPayload

	typ            EntityType
	containedBy    dbid.Id
	linkedPrograms map[dbid.Id]struct{}
}

func newContainerPayload(typ EntityType) containerPayload {
	return containerPayload{
		propertyPayload: propertyPayload{applicationProperties: make(map[string]*ApplicationProperties)},
		typ:             typ,
		linkedPrograms:  make(map[dbid.Id]struct{}),
	}
}

func (p *containerPayload) entityType() EntityType { return p.typ }

func (p *containerPayload) cloneContainer() containerPayload {
	cp := containerPayload{
		propertyPayload: propertyPayload{applicationProperties: make(map[string]*ApplicationProperties, len(p.applicationProperties))},
		typ:             p.typ,
		containedBy:     p.containedBy,
		linkedPrograms:  make(map[dbid.Id]struct{}, len(p.linkedPrograms)),
	}
	for k, v := range p.applicationProperties {
		cloned := *v
		cloned.directory = directoryFromWire(directoryToWire(v.directory))
		cp.applicationProperties[k] = &cloned
	}

	for id := range p.linkedPrograms {
		cp.linkedPrograms[id] = struct{}{}
	}

	return cp
}

func (p *containerPayload) clone() kindPayload {
	cp := p.cloneContainer()

	return &cp
}

// thingPayload backs TypeThing: a home location and an entry/use lock.
type thingPayload struct {
	containerPayload

	home dbid.Id
	lock Lock
}

func (p *thingPayload) clone() kindPayload {
	return &thingPayload{containerPayload: p.cloneContainer(), home: p.home, lock: p.lock}
}

// puppetPayload backs TypePuppet: a display name shown to other players.
type puppetPayload struct {
	containerPayload

	displayName string
}

func (p *puppetPayload) clone() kindPayload {
	return &puppetPayload{containerPayload: p.cloneContainer(), displayName: p.displayName}
}

// vehiclePayload backs TypeVehicle: an interior room and a controlling
// player.
type vehiclePayload struct {
	containerPayload

	interior   dbid.Id
	controller dbid.Id
}

func (p *vehiclePayload) clone() kindPayload {
	return &vehiclePayload{containerPayload: p.cloneContainer(), interior: p.interior, controller: p.controller}
}

// playerPayload backs TypePlayer and TypeGuest: a home room, a display
// name, and a hashed password (spec §9).
type playerPayload struct {
	containerPayload

	home         dbid.Id
	displayName  string
	passwordHash []byte
	passwordSalt []byte
}

func (p *playerPayload) clone() kindPayload {
	return &playerPayload{
		containerPayload: p.cloneContainer(),
		home:             p.home,
		displayName:      p.displayName,
		passwordHash:     append([]byte(nil), p.passwordHash...),
		passwordSalt:     append([]byte(nil), p.passwordSalt...),
	}
}

// actionPayload backs TypeAction and TypeExit: the container the action
// lives in, its targets, command aliases, success/fail messages, and the
// lock gating invocation.
type actionPayload struct {
	containerPayload

	actionContainedBy dbid.Id
	targets           []dbid.Id
	commands          []string
	successMessage    string
	failMessage       string
	lock              Lock
}

func (p *actionPayload) clone() kindPayload {
	return &actionPayload{
		containerPayload:  p.cloneContainer(),
		actionContainedBy: p.actionContainedBy,
		targets:           append([]dbid.Id(nil), p.targets...),
		commands:          append([]string(nil), p.commands...),
		successMessage:    p.successMessage,
		failMessage:       p.failMessage,
		lock:              p.lock,
	}
}

// groupPayload backs TypeGroup: a membership set.
type groupPayload struct {
	containerPayload

	members map[dbid.Id]struct{}
}

func (p *groupPayload) clone() kindPayload {
	cp := &groupPayload{containerPayload: p.cloneContainer(), members: make(map[dbid.Id]struct{}, len(p.members))}
	for id := range p.members {
		cp.members[id] = struct{}{}
	}

	return cp
}

// programPayload backs TypeProgram: source/compiled code, includes, and
// runtime accounting.
type programPayload struct {
	containerPayload

	language   string
	sourceCode PropertyData
	compiled   []byte
	includes   map[dbid.Id]struct{}
	runtimeSec float64
	regName    string
}

func (p *programPayload) clone() kindPayload {
	cp := &programPayload{
		containerPayload: p.cloneContainer(),
		language:         p.language,
		sourceCode:       p.sourceCode.Clone(),
		compiled:         append([]byte(nil), p.compiled...),
		includes:         make(map[dbid.Id]struct{}, len(p.includes)),
		runtimeSec:       p.runtimeSec,
		regName:          p.regName,
	}
	for id := range p.includes {
		cp.includes[id] = struct{}{}
	}

	return cp
}
