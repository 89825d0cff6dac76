package service

import (
	"context"

	"localbite/internal/domain/entity"
)

// IdentityVerifier verifies a federated login credential (e.g. a Google ID
// token) and returns the provider's raw profile attributes on success.
type IdentityVerifier interface {
	// Provider returns the provider this verifier handles.
	Provider() entity.AuthProvider

	// Verify checks the credential and returns the profile attribute map
	// exactly as the provider exposes it (sub, given_name, email, ...).
	Verify(ctx context.Context, credential string) (map[string]any, error)
}
