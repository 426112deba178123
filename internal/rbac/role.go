package rbac

import "fmt"

// Role is the closed set of user roles in the system.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
)

// ParseRole converts a string (e.g. a JWT claim) into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// Supervisory reports whether the role holds supervisory rights
// (read/override on all bookings and sessions).
func (r Role) Supervisory() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Principal is the authenticated identity for one request,
// reconstructed from a validated token. Never persisted.
type Principal struct {
	UserID    string
	Role      Role
	SessionID *string
}
