package repository

import (
	"context"
	"errors"

	"localbite/internal/domain/entity"
)

// ErrVerificationTokenNotFound is returned when no token matches.
var ErrVerificationTokenNotFound = errors.New("verification token not found")

// VerificationTokenRepository defines the operations for email verification tokens.
type VerificationTokenRepository interface {
	// FindByToken retrieves a verification token by its opaque value.
	FindByToken(ctx context.Context, token string) (*entity.VerificationToken, error)

	// Create persists a new verification token.
	Create(ctx context.Context, token *entity.VerificationToken) error

	// Update modifies an existing token (e.g. marking it used).
	Update(ctx context.Context, token *entity.VerificationToken) error
}
