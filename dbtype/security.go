package dbtype

import (
	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
)

// Flag names one bit of a Security bitset.
type Flag uint8

const (
	// FlagRead grants read access.
	FlagRead Flag = 1 << iota
	// FlagWrite grants write access.
	FlagWrite
	// FlagBasic grants basic (use) access.
	FlagBasic
	// FlagChown grants permission to change ownership.
	FlagChown
)

// propertyFlagMask restricts PropertySecurity to read/write only (spec
// §3.5: "PropertySecurity is Security restricted to {read, write}").
const propertyFlagMask = FlagRead | FlagWrite

// Security is the full admin/list/other access-control record attached to
// every Entity.
type Security struct {
	adminIDs   []dbid.Id
	listIDs    []dbid.Id
	listFlags  Flag
	otherFlags Flag
}

// NewSecurity returns an empty Security record.
func NewSecurity() Security {
	return Security{}
}

// AdminIDs returns a copy of the admin id list.
func (s Security) AdminIDs() []dbid.Id {
	return append([]dbid.Id(nil), s.adminIDs...)
}

// ListIDs returns a copy of the list-flag id list.
func (s Security) ListIDs() []dbid.Id {
	return append([]dbid.Id(nil), s.listIDs...)
}

// ListFlags returns the flag bitset applied to ListIDs.
func (s Security) ListFlags() Flag { return s.listFlags }

// OtherFlags returns the flag bitset applied to everyone else.
func (s Security) OtherFlags() Flag { return s.otherFlags }

func containsID(ids []dbid.Id, id dbid.Id) bool {
	for _, existing := range ids {
		if existing.Equal(id) {
			return true
		}
	}

	return false
}

func removeID(ids []dbid.Id, id dbid.Id) []dbid.Id {
	out := make([]dbid.Id, 0, len(ids))

	for _, existing := range ids {
		if !existing.Equal(id) {
			out = append(out, existing)
		}
	}

	return out
}

// AddAdmin adds id to the admin list, purging it from the list-id set if
// present (spec §3.5: "adding to admins implicitly removes from list").
func (s *Security) AddAdmin(id dbid.Id) {
	s.listIDs = removeID(s.listIDs, id)

	if !containsID(s.adminIDs, id) {
		s.adminIDs = append(s.adminIDs, id)
	}
}

// RemoveAdmin removes id from the admin list.
func (s *Security) RemoveAdmin(id dbid.Id) {
	s.adminIDs = removeID(s.adminIDs, id)
}

// AddListID adds id to the list-id set. It is rejected with BadArguments
// if id is already an admin (spec §3.5: "an id appearing in admin_ids
// cannot also appear in list_ids").
func (s *Security) AddListID(id dbid.Id) error {
	if containsID(s.adminIDs, id) {
		return dberrors.BadArguments("%s is already an admin; cannot also be a list id", id)
	}

	if !containsID(s.listIDs, id) {
		s.listIDs = append(s.listIDs, id)
	}

	return nil
}

// RemoveListID removes id from the list-id set.
func (s *Security) RemoveListID(id dbid.Id) {
	s.listIDs = removeID(s.listIDs, id)
}

// SetListFlags replaces the flag bitset applied to ListIDs.
func (s *Security) SetListFlags(flags Flag) {
	s.listFlags = flags
}

// SetOtherFlags replaces the flag bitset applied to everyone else.
func (s *Security) SetOtherFlags(flags Flag) {
	s.otherFlags = flags
}

// Check reports whether requester holds all of the requested flags,
// according to the admin/list/other fallback order: admins always pass;
// list members are checked against ListFlags; otherwise OtherFlags is
// consulted as a fallback only after both admin and list-id checks fail
// (spec §9, supplementing spec.md from original_source/).
func (s Security) Check(requester dbid.Id, want Flag) bool {
	if containsID(s.adminIDs, requester) {
		return true
	}

	if containsID(s.listIDs, requester) {
		return s.listFlags&want == want
	}

	return s.otherFlags&want == want
}

// PropertySecurity is a Security record restricted to the read/write
// flags; Chown and Basic are rejected when list or other flags are set.
type PropertySecurity struct {
	sec Security
}

// NewPropertySecurity returns an empty PropertySecurity record.
func NewPropertySecurity() PropertySecurity {
	return PropertySecurity{}
}

// AddAdmin adds id to the admin list.
func (p *PropertySecurity) AddAdmin(id dbid.Id) { p.sec.AddAdmin(id) }

// RemoveAdmin removes id from the admin list.
func (p *PropertySecurity) RemoveAdmin(id dbid.Id) { p.sec.RemoveAdmin(id) }

// AddListID adds id to the list-id set.
func (p *PropertySecurity) AddListID(id dbid.Id) error { return p.sec.AddListID(id) }

// RemoveListID removes id from the list-id set.
func (p *PropertySecurity) RemoveListID(id dbid.Id) { p.sec.RemoveListID(id) }

// SetListFlags replaces the list-id flag bitset, rejecting any bit outside
// {read, write}.
func (p *PropertySecurity) SetListFlags(flags Flag) error {
	if flags&^propertyFlagMask != 0 {
		return dberrors.BadArguments("property security only supports read/write flags")
	}

	p.sec.SetListFlags(flags)

	return nil
}

// SetOtherFlags replaces the other-id flag bitset, rejecting any bit
// outside {read, write}.
func (p *PropertySecurity) SetOtherFlags(flags Flag) error {
	if flags&^propertyFlagMask != 0 {
		return dberrors.BadArguments("property security only supports read/write flags")
	}

	p.sec.SetOtherFlags(flags)

	return nil
}

// Check reports whether requester holds all of the requested flags.
func (p PropertySecurity) Check(requester dbid.Id, want Flag) bool {
	return p.sec.Check(requester, want)
}
