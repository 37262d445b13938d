package auth

import "fmt"

// Role is the closed set of CMS roles. The zero value is not a valid role and
// ranks below viewer everywhere.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleViewer     Role = "viewer"
)

// ParseRole validates a role string coming from storage or the transport
// layer. Unknown values are rejected before they reach any authorizer check.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
}

// Rank orders roles by privilege: super_admin=4, admin=3, editor=2, viewer=1.
// Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 4
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// AtLeast reports whether role is at least as privileged as required.
func AtLeast(role, required Role) bool {
	return role.Valid() && role.Rank() >= required.Rank()
}

// CanManageUsers is restricted to super admins.
func CanManageUsers(role Role) bool {
	return role == RoleSuperAdmin
}

// CanManageVestigingen covers location management and audit log access.
func CanManageVestigingen(role Role) bool {
	return role == RoleSuperAdmin || role == RoleAdmin
}

// CanEditContent covers every content mutation. Viewers have no mutating
// capability at all.
func CanEditContent(role Role) bool {
	return role == RoleSuperAdmin || role == RoleAdmin || role == RoleEditor
}
