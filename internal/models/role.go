package models

import "time"

// Role is the access level carried by a user and by every issued token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleReadOnly Role = "read-only"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleUser, RoleReadOnly}

// ParseRole converts raw input into a Role, reporting whether it is one of the known values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleReadOnly:
		return Role(s), true
	default:
		return "", false
	}
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    string
	Email     string
	Role      Role
	// ExpiresAt is when the presented token stops being valid; zero when unknown.
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal has unrestricted access.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
