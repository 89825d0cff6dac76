package repository

import (
	"context"

	"localbite/internal/domain/entity"

	"github.com/google/uuid"
)

// PasswordHistoryRepository defines the operations for the password reuse audit trail.
type PasswordHistoryRepository interface {
	// Create persists a password history entry.
	Create(ctx context.Context, history *entity.PasswordHistory) error

	// ListRecent returns up to limit entries for the user, newest first.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.PasswordHistory, error)

	// Prune deletes all but the newest keep entries for the user.
	Prune(ctx context.Context, userID uuid.UUID, keep int) error
}
