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
)

// passwordHistoryRepository implements the domain.PasswordHistoryRepository interface using GORM.
type passwordHistoryRepository struct {
	db *gorm.DB
}

// NewPasswordHistoryRepository is the constructor for passwordHistoryRepository.
func NewPasswordHistoryRepository(db *gorm.DB) repository.PasswordHistoryRepository {
	return &passwordHistoryRepository{db: db}
}

// Create persists a password history entry.
func (repo *passwordHistoryRepository) Create(ctx context.Context, history *entity.PasswordHistory) error {
	historyM := model.PasswordHistoryModel{
		UserID:       history.UserID,
		PasswordHash: history.PasswordHash,
		CreatedByIP:  history.CreatedByIP,
		UserAgent:    history.UserAgent,
	}

	if err := repo.db.WithContext(ctx).Create(&historyM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create password history entry")
	}

	history.ID = historyM.ID
	history.CreatedAt = historyM.CreatedAt

	return nil
}

// ListRecent returns up to limit entries for the user, newest first.
func (repo *passwordHistoryRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.PasswordHistory, error) {
	var models []model.PasswordHistoryModel

	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list password history")
	}

	entries := make([]*entity.PasswordHistory, 0, len(models))
	for _, m := range models {
		entries = append(entries, &entity.PasswordHistory{
			ID:           m.ID,
			UserID:       m.UserID,
			PasswordHash: m.PasswordHash,
			CreatedByIP:  m.CreatedByIP,
			UserAgent:    m.UserAgent,
			CreatedAt:    m.CreatedAt,
		})
	}

	return entries, nil
}

// Prune deletes all but the newest keep entries for the user.
func (repo *passwordHistoryRepository) Prune(ctx context.Context, userID uuid.UUID, keep int) error {
	// Subquery selecting the IDs to retain; everything else for the user goes.
	keepIDs := repo.db.
		Model(&model.PasswordHistoryModel{}).
		Select("id").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(keep)

	err := repo.db.WithContext(ctx).
		Where("user_id = ? AND id NOT IN (?)", userID, keepIDs).
		Delete(&model.PasswordHistoryModel{}).Error
	if err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to prune password history")
	}

	return nil
}
