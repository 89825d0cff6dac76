// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"localbite/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID, including roles.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address, including roles.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByEmailForUpdate retrieves a user with a row lock held for the
	// remainder of the surrounding transaction. Used for failed-attempt
	// counting so concurrent logins cannot lose increments.
	FindByEmailForUpdate(ctx context.Context, email string) (*entity.User, error)

	// ExistsByEmail reports whether an account with this email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage. Role
	// assignments are not touched; they are fixed at creation time.
	Update(ctx context.Context, user *entity.User) error
}
