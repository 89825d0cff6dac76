package impl

import (
	"context"

	"localbite/config"
	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/domain/service"
	"localbite/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// passwordService implements the PasswordUsecase interface by exposing the
// policy engine to the delivery layer.
type passwordService struct {
	policy   service.PasswordPolicy
	userRepo repository.UserRepository
	cfg      *config.PasswordPolicyConfig
}

// PasswordServiceParams holds dependencies for passwordService, injected by Fx.
type PasswordServiceParams struct {
	fx.In

	Policy   service.PasswordPolicy
	UserRepo repository.UserRepository
	Config   *config.Config
}

// NewPasswordService is the constructor for passwordService.
func NewPasswordService(params PasswordServiceParams) usecase.PasswordUsecase {
	return &passwordService{
		policy:   params.Policy,
		userRepo: params.UserRepo,
		cfg:      params.Config.PasswordPolicy,
	}
}

// CheckStrength evaluates a candidate password without persisting anything.
func (srv *passwordService) CheckStrength(ctx context.Context, input *usecase.PasswordCheckInput) (*usecase.PasswordCheckOutput, error) {
	shell := &entity.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	evaluation := srv.policy.Evaluate(ctx, input.Password, shell)

	return &usecase.PasswordCheckOutput{
		Valid:       evaluation.Valid,
		Score:       evaluation.Score,
		Strength:    evaluation.Strength,
		Violations:  evaluation.Violations,
		Suggestions: evaluation.Suggestions,
	}, nil
}

// Requirements returns the active policy configuration.
func (srv *passwordService) Requirements(_ context.Context) (*usecase.PasswordRequirementsOutput, error) {
	return &usecase.PasswordRequirementsOutput{
		Enabled:          srv.cfg.Enabled,
		EnforcementLevel: srv.cfg.EnforcementLevel,
		MinLength:        srv.cfg.MinLength,
		MaxLength:        srv.cfg.MaxLength,
		RequireUppercase: srv.cfg.RequireUppercase,
		RequireLowercase: srv.cfg.RequireLowercase,
		RequireDigits:    srv.cfg.RequireDigits,
		RequireSpecial:   srv.cfg.RequireSpecial,
		MinDigits:        srv.cfg.MinDigits,
		MinSpecialChars:  srv.cfg.MinSpecialChars,
		MaxRepeatedChars: srv.cfg.MaxRepeatedChars,
		HistoryCount:     srv.cfg.HistoryCount,
		ExpiryDays:       srv.cfg.ExpiryDays,
		Requirements:     srv.policy.Suggestions(),
	}, nil
}

// ExpiryStatus reports the expiry state for an authenticated user.
func (srv *passwordService) ExpiryStatus(ctx context.Context, userID uuid.UUID) (*usecase.PasswordExpiryOutput, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	expiry := srv.policy.CheckExpiry(user)

	return &usecase.PasswordExpiryOutput{
		Expired:       expiry.Expired,
		ExpiresInDays: expiry.DaysRemaining,
		Warning:       expiry.Warning,
	}, nil
}
