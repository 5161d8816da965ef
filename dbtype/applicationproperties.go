package dbtype

import "github.com/mutgos/dbcore/dbid"

// ApplicationProperties wraps one PropertyDirectory with the owning
// application's name, owning id, and its own PropertySecurity (spec
// §3.4). The first path segment of a fully qualified property path
// selects the application; the remainder addresses the directory within
// it.
type ApplicationProperties struct {
	name      string
	owner     dbid.Id
	security  PropertySecurity
	directory *PropertyDirectory
}

// NewApplicationProperties returns an empty ApplicationProperties
// belonging to owner under name.
func NewApplicationProperties(name string, owner dbid.Id) *ApplicationProperties {
	return &ApplicationProperties{
		name:      name,
		owner:     owner,
		directory: NewPropertyDirectory(),
	}
}

// Name returns the application's name.
func (a *ApplicationProperties) Name() string { return a.name }

// Owner returns the application's owning id.
func (a *ApplicationProperties) Owner() dbid.Id { return a.owner }

// Security returns the application's PropertySecurity.
func (a *ApplicationProperties) Security() PropertySecurity { return a.security }

// SetSecurity replaces the application's PropertySecurity.
func (a *ApplicationProperties) SetSecurity(sec PropertySecurity) { a.security = sec }

// Directory returns the application's property directory.
func (a *ApplicationProperties) Directory() *PropertyDirectory { return a.directory }
