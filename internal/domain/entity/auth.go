// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "strings"

// AuthProvider identifies which identity provider owns an account's credentials.
type AuthProvider string

const (
	// ProviderLocal is an email/password account managed by this service.
	ProviderLocal AuthProvider = "LOCAL"
	// ProviderGoogle is an account created or linked through Google Sign-In.
	ProviderGoogle AuthProvider = "GOOGLE"
	// ProviderFacebook is an account created or linked through Facebook Login.
	ProviderFacebook AuthProvider = "FACEBOOK"
	// ProviderApple is an account created or linked through Sign in with Apple.
	ProviderApple AuthProvider = "APPLE"
)

// String returns the string representation of the AuthProvider.
func (p AuthProvider) String() string {
	return string(p)
}

// IsValid checks if the AuthProvider is a known value.
func (p AuthProvider) IsValid() bool {
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderFacebook, ProviderApple:
		return true
	default:
		return false
	}
}

// ParseAuthProvider parses a case-insensitive provider string.
func ParseAuthProvider(s string) (AuthProvider, bool) {
	provider := AuthProvider(strings.ToUpper(strings.TrimSpace(s)))
	if !provider.IsValid() {
		return "", false
	}

	return provider, true
}
