package impl

import (
	"context"
	"log/slog"
	"time"

	"localbite/config"
	deliverycontext "localbite/internal/delivery/context"
	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/domain/service"
	"localbite/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// verificationService implements the VerificationUsecase interface.
type verificationService struct {
	txManager  repository.TransactionManager
	userRepo   repository.UserRepository
	dispatcher service.EmailDispatcher

	verificationTTL time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// VerificationServiceParams holds dependencies for verificationService, injected by Fx.
type VerificationServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	UserRepo   repository.UserRepository
	Dispatcher service.EmailDispatcher
	Config     *config.Config
	Logger     *slog.Logger
}

// NewVerificationService is the constructor for verificationService.
func NewVerificationService(params VerificationServiceParams) usecase.VerificationUsecase {
	return &verificationService{
		txManager:       params.TxManager,
		userRepo:        params.UserRepo,
		dispatcher:      params.Dispatcher,
		verificationTTL: params.Config.Auth.VerificationTTL,
		logger:          params.Logger,
		now:             time.Now,
	}
}

func (srv *verificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// VerifyEmail redeems a token, marking the account verified and the token used.
func (srv *verificationService) VerifyEmail(ctx context.Context, input *usecase.VerifyEmailInput) error {
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.VerificationTokenRepo()

		token, err := tokenRepo.FindByToken(ctx, input.Token)
		if err != nil {
			if errors.Is(err, repository.ErrVerificationTokenNotFound) {
				return domainerrors.ErrVerificationTokenInvalid
			}

			return errors.Wrap(err, "failed to load verification token")
		}

		if !token.Usable(srv.now()) {
			return domainerrors.ErrVerificationTokenInvalid
		}

		userRepo := repoFactory.UserRepo()
		user, err := userRepo.FindByID(ctx, token.UserID)
		if err != nil {
			return errors.Wrap(err, "failed to load account for verification")
		}

		user.EmailVerified = true
		if err := userRepo.Update(ctx, user); err != nil {
			return err
		}

		token.Used = true

		return tokenRepo.Update(ctx, token)
	})
	if err != nil {
		return err
	}

	srv.log(ctx).Info("Email verified")

	return nil
}

// ResendVerification issues and mails a fresh token. Unknown addresses are
// reported like successes to prevent account enumeration; already-verified
// accounts get an explicit error since the caller proved ownership by
// receiving the first mail.
func (srv *verificationService) ResendVerification(ctx context.Context, input *usecase.ResendVerificationInput) error {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Info("Verification resend for unknown email", slog.String("email", input.Email))

			return nil
		}

		return errors.Wrap(err, "failed to load account")
	}

	if user.EmailVerified {
		return domainerrors.ErrEmailAlreadyVerified
	}

	token, err := srv.issueToken(ctx, user)
	if err != nil {
		return err
	}

	if err := srv.dispatcher.SendVerificationEmail(ctx, user.Email, token); err != nil {
		srv.log(ctx).Warn("Failed to send verification email", slog.String("email", user.Email), slog.Any("error", err))
	}

	return nil
}

// SendVerification issues and mails a token for an account that is not yet
// verified. Verified accounts are skipped silently.
func (srv *verificationService) SendVerification(ctx context.Context, user *entity.User) error {
	if user.EmailVerified {
		return nil
	}

	token, err := srv.issueToken(ctx, user)
	if err != nil {
		return err
	}

	return srv.dispatcher.SendVerificationEmail(ctx, user.Email, token)
}

func (srv *verificationService) issueToken(ctx context.Context, user *entity.User) (string, error) {
	token := &entity.VerificationToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: srv.now().Add(srv.verificationTTL),
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.VerificationTokenRepo().Create(ctx, token)
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to issue verification token")
	}

	return token.Token, nil
}

// Status reports the verification state for an email address.
func (srv *verificationService) Status(ctx context.Context, email string) (*usecase.VerificationStatusOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return &usecase.VerificationStatusOutput{
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
	}, nil
}

// ManualVerify marks an account verified without a token. Only reachable
// when test routes are enabled.
func (srv *verificationService) ManualVerify(ctx context.Context, email string) error {
	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domainerrors.ErrUserNotFound
		}

		return errors.Wrap(err, "failed to load account")
	}

	if user.EmailVerified {
		return domainerrors.ErrEmailAlreadyVerified
	}

	user.EmailVerified = true
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return err
	}

	srv.log(ctx).Warn("Email manually verified", slog.String("email", email))

	return nil
}
