// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the central account entity. A user always has exactly one
// authentication provider: LOCAL accounts carry a bcrypt password hash,
// federated accounts carry the provider's subject identifier instead.
type User struct {
	ID           uuid.UUID // The unique identifier for the account.
	Email        string    // The login identifier; unique across all providers.
	PasswordHash string    // Bcrypt hash for LOCAL accounts; empty for federated accounts.
	FirstName    string
	LastName     string
	PhoneNumber  string

	EmailVerified bool // Login is refused until the email address is confirmed.
	AccountLocked bool // Set after repeated failed logins or by an administrator.
	Enabled       bool // Administrative kill switch; disabled accounts cannot log in.

	FailedLoginAttempts int
	Provider            AuthProvider // The identity provider that owns this account's credentials.
	ProviderID          string       // The provider's subject identifier; empty for LOCAL accounts.

	Roles     []Role
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the first and last name, trimming the separator when either is empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Authorities returns the ROLE_-prefixed authority strings for token claims.
func (u *User) Authorities() []string {
	authorities := make([]string, len(u.Roles))
	for i, role := range u.Roles {
		authorities[i] = role.Name.Authority()
	}

	return authorities
}

// HasRole reports whether the user carries the given role.
func (u *User) HasRole(name RoleName) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}

	return false
}

// EligibleForLogin reports whether the account may authenticate at all.
// All three gates must pass; the caller must not reveal which one failed.
func (u *User) EligibleForLogin() bool {
	return u.EmailVerified && !u.AccountLocked && u.Enabled
}

// PasswordReference returns the timestamp password expiry is measured from.
func (u *User) PasswordReference() time.Time {
	if !u.UpdatedAt.IsZero() {
		return u.UpdatedAt
	}

	return u.CreatedAt
}
