package rbac

// AdminRole is the role name that gates every administrative mutation.
// The console checks this literal name; permission rows are managed as
// data but do not gate the console's own endpoints.
const AdminRole = "admin"

// Capability identifies a (resource, action) pair checked against the
// permission catalog.
type Capability struct {
	Resource string
	Action   string
}

// RoleSet is the resolved set of role names held by a principal.
type RoleSet map[string]struct{}

// NewRoleSet builds a RoleSet from resolved role names.
func NewRoleSet(names []string) RoleSet {
	set := make(RoleSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Contains reports whether the set holds the given role name.
// Role names are semantic keys and compare case-sensitively.
func (s RoleSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
