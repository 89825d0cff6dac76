// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements the domain.UserRepository interface using GORM.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a domain.UserRepository interface, adhering to dependency inversion.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a single user by their unique ID, preloading their roles.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).
		Preload("Roles").
		Where("id = ?", id).
		First(&userM).Error
	if err != nil {
		// If the error is 'record not found', return a domain-specific error.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by id")
	}

	return toUserDomain(&userM), nil
}

// FindByEmail retrieves a single user by their email address, preloading their roles.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).
		Preload("Roles").
		Where("email = ?", email).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email")
	}

	return toUserDomain(&userM), nil
}

// FindByEmailForUpdate retrieves a user holding a FOR UPDATE row lock for the
// remainder of the surrounding transaction. Callers must run inside
// TransactionManager.Execute or the lock is released immediately.
func (repo *userRepository) FindByEmailForUpdate(ctx context.Context, email string) (*entity.User, error) {
	var userM model.UserModel

	err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Preload("Roles").
		Where("email = ?", email).
		First(&userM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to find user by email for update")
	}

	return toUserDomain(&userM), nil
}

// ExistsByEmail reports whether an account with this email exists.
func (repo *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64

	err := repo.db.WithContext(ctx).
		Model(&model.UserModel{}).
		Where("email = ?", email).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check user existence")
	}

	return count > 0, nil
}

// Create persists a new user entity, including its role assignments.
// Role rows must already exist; only the join rows are written here.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	err := repo.db.WithContext(ctx).
		Omit("Roles.*").
		Create(userM).Error
	if err != nil {
		// Convert PostgreSQL errors to domain errors
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("missing required user information")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserCreationFailed.WrapMessage("invalid role reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create user")
	}

	// Update the user entity with the generated ID and timestamps
	user.ID = userM.ID
	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// Update modifies an existing user entity in the database. Role assignments
// are fixed at creation time and deliberately left untouched.
func (repo *userRepository) Update(ctx context.Context, user *entity.User) error {
	userM := fromUserDomain(user)

	err := repo.db.WithContext(ctx).
		Omit("Roles").
		Save(userM).Error
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("email already exists")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrUserUpdateFailed.WrapMessage("missing required user information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to update user")
	}

	user.UpdatedAt = userM.UpdatedAt

	return nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	roles := make([]entity.Role, 0, len(data.Roles))
	for _, role := range data.Roles {
		roles = append(roles, entity.Role{
			ID:          role.ID,
			Name:        entity.RoleName(role.Name),
			Description: role.Description,
		})
	}

	return &entity.User{
		ID:                  data.ID,
		Email:               data.Email,
		PasswordHash:        data.PasswordHash,
		FirstName:           data.FirstName,
		LastName:            data.LastName,
		PhoneNumber:         data.PhoneNumber,
		EmailVerified:       data.EmailVerified,
		AccountLocked:       data.AccountLocked,
		Enabled:             data.Enabled,
		FailedLoginAttempts: data.FailedLoginAttempts,
		Provider:            entity.AuthProvider(data.Provider),
		ProviderID:          data.ProviderID,
		Roles:               roles,
		LastLogin:           data.LastLogin,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	roles := make([]model.RoleModel, 0, len(data.Roles))
	for _, role := range data.Roles {
		roles = append(roles, model.RoleModel{
			ID:          role.ID,
			Name:        role.Name.String(),
			Description: role.Description,
		})
	}

	return &model.UserModel{
		ID:                  data.ID,
		Email:               data.Email,
		PasswordHash:        data.PasswordHash,
		FirstName:           data.FirstName,
		LastName:            data.LastName,
		PhoneNumber:         data.PhoneNumber,
		EmailVerified:       data.EmailVerified,
		AccountLocked:       data.AccountLocked,
		Enabled:             data.Enabled,
		FailedLoginAttempts: data.FailedLoginAttempts,
		Provider:            data.Provider.String(),
		ProviderID:          data.ProviderID,
		Roles:               roles,
		LastLogin:           data.LastLogin,
		CreatedAt:           data.CreatedAt,
		UpdatedAt:           data.UpdatedAt,
	}
}
