package repository

import (
	"context"
	"errors"

	"localbite/internal/domain/entity"
)

// ErrRoleNotFound is returned when a role does not exist yet.
var ErrRoleNotFound = errors.New("role not found")

// RoleRepository defines the operations for role persistence.
// Roles are created lazily the first time a registration needs them.
type RoleRepository interface {
	// FindByName retrieves a role by its canonical name.
	FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error)

	// Create persists a new role.
	Create(ctx context.Context, role *entity.Role) error
}
