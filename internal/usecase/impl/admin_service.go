package impl

import (
	"context"
	"log/slog"

	deliverycontext "localbite/internal/delivery/context"
	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// adminService implements the AdminUsecase interface.
type adminService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	logger    *slog.Logger
}

// AdminServiceParams holds dependencies for adminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Logger    *slog.Logger
}

// NewAdminService is the constructor for adminService.
func NewAdminService(params AdminServiceParams) usecase.AdminUsecase {
	return &adminService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		logger:    params.Logger,
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// mutateAccount loads the account under a row lock, applies the mutation and
// persists it. The mutation returns an error to veto the change.
func (srv *adminService) mutateAccount(ctx context.Context, email string, mutate func(*entity.User) error) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return domainerrors.ErrUserNotFound
			}

			return errors.Wrap(err, "failed to load account")
		}

		if err := mutate(user); err != nil {
			return err
		}

		return userRepo.Update(ctx, user)
	})
}

// LockAccount locks the account. Locking an already locked account is a conflict.
func (srv *adminService) LockAccount(ctx context.Context, input *usecase.AdminAccountInput) error {
	err := srv.mutateAccount(ctx, input.Email, func(user *entity.User) error {
		if user.AccountLocked {
			return domainerrors.ErrConflict.WithDetails("account is already locked")
		}

		user.AccountLocked = true

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Warn("Account locked by administrator", slog.String("email", input.Email))

	return nil
}

// UnlockAccount unlocks the account and clears the failed-attempt counter.
func (srv *adminService) UnlockAccount(ctx context.Context, input *usecase.AdminAccountInput) error {
	err := srv.mutateAccount(ctx, input.Email, func(user *entity.User) error {
		if !user.AccountLocked {
			return domainerrors.ErrConflict.WithDetails("account is not locked")
		}

		user.AccountLocked = false
		user.FailedLoginAttempts = 0

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account unlocked by administrator", slog.String("email", input.Email))

	return nil
}

// EnableAccount re-enables a disabled account.
func (srv *adminService) EnableAccount(ctx context.Context, input *usecase.AdminAccountInput) error {
	err := srv.mutateAccount(ctx, input.Email, func(user *entity.User) error {
		if user.Enabled {
			return domainerrors.ErrConflict.WithDetails("account is already enabled")
		}

		user.Enabled = true

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Account enabled by administrator", slog.String("email", input.Email))

	return nil
}

// DisableAccount disables the account.
func (srv *adminService) DisableAccount(ctx context.Context, input *usecase.AdminAccountInput) error {
	err := srv.mutateAccount(ctx, input.Email, func(user *entity.User) error {
		if !user.Enabled {
			return domainerrors.ErrConflict.WithDetails("account is already disabled")
		}

		user.Enabled = false

		return nil
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Warn("Account disabled by administrator", slog.String("email", input.Email))

	return nil
}

// ResetFailedAttempts zeroes the failed-attempt counter, reporting the
// previous value. Resetting an already-zero counter is not an error.
func (srv *adminService) ResetFailedAttempts(ctx context.Context, input *usecase.AdminAccountInput) (*usecase.ResetFailedAttemptsOutput, error) {
	var previous int

	err := srv.mutateAccount(ctx, input.Email, func(user *entity.User) error {
		previous = user.FailedLoginAttempts
		user.FailedLoginAttempts = 0

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Failed login attempts reset",
		slog.String("email", input.Email),
		slog.Int("previousAttempts", previous),
	)

	return &usecase.ResetFailedAttemptsOutput{
		Email:            input.Email,
		PreviousAttempts: previous,
	}, nil
}

// AccountStatus returns the administrative snapshot of an account's gates.
func (srv *adminService) AccountStatus(ctx context.Context, email string) (*usecase.AccountStatusOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return &usecase.AccountStatusOutput{
		Email:               user.Email,
		EmailVerified:       user.EmailVerified,
		AccountLocked:       user.AccountLocked,
		Enabled:             user.Enabled,
		FailedLoginAttempts: user.FailedLoginAttempts,
		Roles:               user.Authorities(),
		Provider:            string(user.Provider),
		LastLogin:           user.LastLogin,
		CreatedAt:           user.CreatedAt,
		UpdatedAt:           user.UpdatedAt,
	}, nil
}
