// Package dbinterface defines the backend contract and the in-process
// cache of loaded Entities sitting in front of it: CachedEntity,
// EntityRef, SiteCache, and the DbBackend persistence interface (spec
// §4.7-§4.9, §6.1).
package dbinterface

// ResultCode is the status every facade-level operation returns
// alongside its error, matching the backend contract's named result set
// (spec §6.1) rather than ad hoc booleans.
type ResultCode int

const (
	// OK means the operation completed.
	OK ResultCode = iota
	// OKDelayed means the operation will complete once outstanding
	// references drain (e.g. delete-while-pinned).
	OKDelayed
	// ResultError is a generic failure with no more specific code.
	ResultError
	// DatabaseError means the backend reported an unrecoverable failure.
	DatabaseError
	// ErrorNotFound means the requested id is not present.
	ErrorNotFound
	// ErrorEntityInUse means the backend refused a delete because the
	// entity is pinned and cannot be queued for delayed deletion.
	ErrorEntityInUse
	// BadSiteID means the site id is invalid or unknown.
	BadSiteID
	// BadEntityID means the entity id is invalid or unknown within its
	// site.
	BadEntityID
	// BadID means the compound id is malformed (e.g. the default id).
	BadID
	// BadOwner means the proposed owner id does not resolve.
	BadOwner
	// BadName means the proposed name is empty or already in use where
	// uniqueness is required.
	BadName
	// BadEntityType means the entity type does not support the
	// requested operation or is not a legal type to construct.
	BadEntityType
)

// String renders the result code's name, used in diagnostics.
func (c ResultCode) String() string {
	switch c {
	case OK:
		return "OK"
	case OKDelayed:
		return "OK_DELAYED"
	case ResultError:
		return "ERROR"
	case DatabaseError:
		return "DATABASE_ERROR"
	case ErrorNotFound:
		return "ERROR_NOT_FOUND"
	case ErrorEntityInUse:
		return "ERROR_ENTITY_IN_USE"
	case BadSiteID:
		return "BAD_SITE_ID"
	case BadEntityID:
		return "BAD_ENTITY_ID"
	case BadID:
		return "BAD_ID"
	case BadOwner:
		return "BAD_OWNER"
	case BadName:
		return "BAD_NAME"
	case BadEntityType:
		return "BAD_ENTITY_TYPE"
	default:
		return "UNKNOWN"
	}
}
