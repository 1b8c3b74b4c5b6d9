package domain

import (
	"fmt"
	"strings"
)

// Role is the canonical account role. Raw strings are resolved through
// ParseRole once at the boundary; everything past that compares Role values
// directly, never case-normalized strings.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleStoreOwner Role = "STORE_OWNER"
	RoleNormalUser Role = "NORMAL_USER"
)

// ValidRoles returns the set of assignable roles.
func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleStoreOwner, RoleNormalUser}
}

// ParseRole resolves a raw role string case-insensitively into its canonical
// form.
func ParseRole(raw string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(RoleAdmin):
		return RoleAdmin, nil
	case string(RoleStoreOwner):
		return RoleStoreOwner, nil
	case string(RoleNormalUser):
		return RoleNormalUser, nil
	default:
		return "", fmt.Errorf("invalid role %q", raw)
	}
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
