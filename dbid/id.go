// Package dbid defines the compound (site, entity) identifier used to name
// every object in the database.
package dbid

import (
	"fmt"
	"strconv"
	"strings"
)

// Id names a single entity within a site. The zero value is the default,
// invalid id (site 0, entity 0) and is never assigned to a real entity.
type Id struct {
	siteID   uint32
	entityID uint32
}

// Default is the zero Id, returned whenever an operation has nothing
// meaningful to reference.
var Default = Id{}

// New constructs an Id from a site id and an entity id.
func New(siteID, entityID uint32) Id {
	return Id{siteID: siteID, entityID: entityID}
}

// SiteID returns the site portion of the id.
func (id Id) SiteID() uint32 { return id.siteID }

// EntityID returns the entity portion of the id.
func (id Id) EntityID() uint32 { return id.entityID }

// IsDefault reports whether id is the zero/invalid Id.
func (id Id) IsDefault() bool {
	return id.siteID == 0 && id.entityID == 0
}

// IsSiteDefault reports whether id refers to a site but not to any
// particular entity within it (entity id 0 is never a real entity).
func (id Id) IsSiteDefault() bool {
	return id.siteID != 0 && id.entityID == 0
}

// Compare orders ids site-major, then entity. It returns a negative number,
// zero, or a positive number as id is less than, equal to, or greater than
// other, matching the conventions of strings.Compare / cmp.Compare.
func (id Id) Compare(other Id) int {
	switch {
	case id.siteID != other.siteID:
		if id.siteID < other.siteID {
			return -1
		}

		return 1
	case id.entityID != other.entityID:
		if id.entityID < other.entityID {
			return -1
		}

		return 1
	default:
		return 0
	}
}

// Hash returns a deterministic hash of id suitable for use as a map key
// surrogate or in hash-based sets; Id itself is already comparable and
// usable directly as a map key, but some callers (e.g. sharded caches)
// want a single integer to bucket on.
func (id Id) Hash() uint64 {
	return uint64(id.siteID)<<32 | uint64(id.entityID)
}

// Equal reports whether id and other name the same entity.
func (id Id) Equal(other Id) bool {
	return id.Compare(other) == 0
}

// Less reports whether id sorts before other under Compare's site-major
// ordering. Useful directly as a sort.Slice/slices.SortFunc less function.
func (id Id) Less(other Id) bool {
	return id.Compare(other) < 0
}

// String renders the canonical form "#<site>-<entity>". When siteID is
// omitted by the caller's context the shorthand "#<entity>" form should be
// produced instead via ShortString.
func (id Id) String() string {
	return fmt.Sprintf("#%d-%d", id.siteID, id.entityID)
}

// ShortString renders the entity-only shorthand "#<entity>", used when the
// site is implied by context (e.g. within a single site's dump file).
func (id Id) ShortString() string {
	return fmt.Sprintf("#%d", id.entityID)
}

// Parse parses either the canonical "#<site>-<entity>" form or the
// shorthand "#<entity>" form (which requires a defaultSite to fill in the
// missing component). It returns an error if s is not a well-formed id.
func Parse(s string, defaultSite uint32) (Id, error) {
	trimmed := strings.TrimPrefix(s, "#")
	if trimmed == s {
		return Id{}, fmt.Errorf("dbid: id %q missing leading '#'", s)
	}

	if idx := strings.IndexByte(trimmed, '-'); idx >= 0 {
		siteStr, entityStr := trimmed[:idx], trimmed[idx+1:]

		site, err := strconv.ParseUint(siteStr, 10, 32)
		if err != nil {
			return Id{}, fmt.Errorf("dbid: invalid site in %q: %w", s, err)
		}

		entity, err := strconv.ParseUint(entityStr, 10, 32)
		if err != nil {
			return Id{}, fmt.Errorf("dbid: invalid entity in %q: %w", s, err)
		}

		return New(uint32(site), uint32(entity)), nil
	}

	entity, err := strconv.ParseUint(trimmed, 10, 32)
	if err != nil {
		return Id{}, fmt.Errorf("dbid: invalid entity in %q: %w", s, err)
	}

	return New(defaultSite, uint32(entity)), nil
}
