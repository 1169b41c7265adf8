package auth

import "strings"

// ParseRole validates a raw role string against the two known roles.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r Role) bool {
	_, ok := ParseRole(r)
	return ok
}

// IsAdminRole reports whether the role grants admin-scoped access.
func IsAdminRole(r Role) bool {
	return r == RoleAdmin
}
