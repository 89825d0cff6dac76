// Package entity contains the core business objects of the project.
package entity

import "strings"

// RoleName represents the type of role a user can have in the system.
type RoleName string

const (
	// RoleBuyer indicates a regular marketplace customer.
	RoleBuyer RoleName = "BUYER"
	// RoleSeller indicates a merchant selling on the marketplace.
	RoleSeller RoleName = "SELLER"
	// RoleAdmin indicates an operator with account administration rights.
	RoleAdmin RoleName = "ADMIN"
)

// String returns the string representation of the RoleName.
func (r RoleName) String() string {
	return string(r)
}

// Authority returns the ROLE_-prefixed authority string used in token claims.
func (r RoleName) Authority() string {
	return "ROLE_" + string(r)
}

// IsValid checks if the RoleName is a valid value.
func (r RoleName) IsValid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// Registerable reports whether the role may be requested at self-registration.
// ADMIN is never self-assignable.
func (r RoleName) Registerable() bool {
	return r == RoleBuyer || r == RoleSeller
}

// ParseRoleName parses a case-insensitive role string.
func ParseRoleName(s string) (RoleName, bool) {
	role := RoleName(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", false
	}

	return role, true
}

// Role is a named authority granted to users.
type Role struct {
	ID          int64
	Name        RoleName
	Description string
}
