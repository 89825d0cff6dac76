package postgres

import (
	"context"

	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// roleRepository implements the domain.RoleRepository interface using GORM.
type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository is the constructor for roleRepository.
func NewRoleRepository(db *gorm.DB) repository.RoleRepository {
	return &roleRepository{db: db}
}

// FindByName retrieves a role by its canonical name.
func (repo *roleRepository) FindByName(ctx context.Context, name entity.RoleName) (*entity.Role, error) {
	var roleM model.RoleModel

	err := repo.db.WithContext(ctx).
		Where("name = ?", name.String()).
		First(&roleM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoleNotFound
		}

		return nil, errors.Wrap(err, "failed to find role by name")
	}

	return &entity.Role{
		ID:          roleM.ID,
		Name:        entity.RoleName(roleM.Name),
		Description: roleM.Description,
	}, nil
}

// Create persists a new role.
func (repo *roleRepository) Create(ctx context.Context, role *entity.Role) error {
	roleM := model.RoleModel{
		Name:        role.Name.String(),
		Description: role.Description,
	}

	if err := repo.db.WithContext(ctx).Create(&roleM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("role already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create role")
	}

	role.ID = roleM.ID

	return nil
}
