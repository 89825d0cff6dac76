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

// verificationTokenRepository implements the domain.VerificationTokenRepository interface using GORM.
type verificationTokenRepository struct {
	db *gorm.DB
}

// NewVerificationTokenRepository is the constructor for verificationTokenRepository.
func NewVerificationTokenRepository(db *gorm.DB) repository.VerificationTokenRepository {
	return &verificationTokenRepository{db: db}
}

// FindByToken retrieves a verification token by its opaque value.
func (repo *verificationTokenRepository) FindByToken(ctx context.Context, token string) (*entity.VerificationToken, error) {
	var tokenM model.VerificationTokenModel

	err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVerificationTokenNotFound
		}

		return nil, errors.Wrap(err, "failed to find verification token")
	}

	return toVerificationTokenDomain(&tokenM), nil
}

// Create persists a new verification token.
func (repo *verificationTokenRepository) Create(ctx context.Context, token *entity.VerificationToken) error {
	tokenM := model.VerificationTokenModel{
		UserID:    token.UserID,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Used:      token.Used,
	}

	if err := repo.db.WithContext(ctx).Create(&tokenM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("verification token already exists")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create verification token")
	}

	token.ID = tokenM.ID
	token.CreatedAt = tokenM.CreatedAt

	return nil
}

// Update modifies an existing token, typically to mark it used.
func (repo *verificationTokenRepository) Update(ctx context.Context, token *entity.VerificationToken) error {
	tokenM := model.VerificationTokenModel{
		ID:        token.ID,
		UserID:    token.UserID,
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Used:      token.Used,
		CreatedAt: token.CreatedAt,
	}

	if err := repo.db.WithContext(ctx).Save(&tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update verification token")
	}

	return nil
}

// toVerificationTokenDomain converts a GORM model to a domain entity.
func toVerificationTokenDomain(data *model.VerificationTokenModel) *entity.VerificationToken {
	return &entity.VerificationToken{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt,
		Used:      data.Used,
		CreatedAt: data.CreatedAt,
	}
}
