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

// authService implements the AuthUsecase interface.
type authService struct {
	txManager  repository.TransactionManager
	userRepo   repository.UserRepository
	hasher     service.PasswordHasher
	tokenCodec service.TokenCodec
	policy     service.PasswordPolicy
	dispatcher service.EmailDispatcher

	maxFailedLogins int
	verificationTTL time.Duration

	// dummyHash is compared against on every rejection branch that skips the
	// real bcrypt comparison, so absent and present accounts cost the same.
	dummyHash string

	logger *slog.Logger
}

// AuthServiceParams holds dependencies for authService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	UserRepo   repository.UserRepository
	Hasher     service.PasswordHasher
	TokenCodec service.TokenCodec
	Policy     service.PasswordPolicy
	Dispatcher service.EmailDispatcher
	Config     *config.Config
	Logger     *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) (usecase.AuthUsecase, error) {
	dummyHash, err := params.Hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare timing-equalization hash")
	}

	return &authService{
		txManager:       params.TxManager,
		userRepo:        params.UserRepo,
		hasher:          params.Hasher,
		tokenCodec:      params.TokenCodec,
		policy:          params.Policy,
		dispatcher:      params.Dispatcher,
		maxFailedLogins: params.Config.Auth.MaxFailedLogins,
		verificationTTL: params.Config.Auth.VerificationTTL,
		dummyHash:       dummyHash,
		logger:          params.Logger,
	}, nil
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete local account registration process.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	role, err := resolveRegistrationRole(input.Role)
	if err != nil {
		return nil, err
	}

	// Policy validation runs against a transient user shell so the
	// personal-info rules see the right name and email.
	shell := &entity.User{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := srv.policy.Validate(ctx, input.Password, shell); err != nil {
		return nil, err
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	var (
		registeredUser    *entity.User
		verificationToken string
		duplicate         bool
	)

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		exists, err := userRepo.ExistsByEmail(ctx, input.Email)
		if err != nil {
			return errors.Wrap(err, "failed to check email availability")
		}
		if exists {
			// Answer exactly like a fresh registration so callers cannot
			// probe which addresses hold accounts. Nothing is written.
			duplicate = true

			return nil
		}

		roleEntity, err := ensureRoleIn(ctx, repoFactory.RoleRepo(), role)
		if err != nil {
			return err
		}

		user := &entity.User{
			Email:        input.Email,
			PasswordHash: passwordHash,
			FirstName:    input.FirstName,
			LastName:     input.LastName,
			PhoneNumber:  input.PhoneNumber,
			Enabled:      true,
			Provider:     entity.ProviderLocal,
			Roles:        []entity.Role{*roleEntity},
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}

		token := &entity.VerificationToken{
			UserID:    user.ID,
			Token:     uuid.NewString(),
			ExpiresAt: time.Now().Add(srv.verificationTTL),
		}
		if err := repoFactory.VerificationTokenRepo().Create(ctx, token); err != nil {
			return err
		}

		registeredUser = user
		verificationToken = token.Token

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute registration transaction", slog.String("email", input.Email), slog.Any("error", err))

		return nil, err
	}

	message := "Registration successful. Please check your email to verify your account."
	if duplicate {
		srv.log(ctx).Info("Registration attempt for existing email", slog.String("email", input.Email))

		return &usecase.RegisterOutput{Message: message}, nil
	}

	// History recording and mail dispatch are best effort and must never
	// fail an already-committed registration.
	srv.policy.RecordHistory(ctx, &entity.PasswordHistory{
		UserID:       registeredUser.ID,
		PasswordHash: passwordHash,
		CreatedByIP:  input.ClientIP,
		UserAgent:    input.UserAgent,
	})

	srv.dispatchVerificationEmail(ctx, registeredUser.Email, verificationToken)

	srv.log(ctx).Info("User registered", slog.Any("userID", registeredUser.ID), slog.String("role", role.String()))

	return &usecase.RegisterOutput{
		User:    usecase.NewUserSummary(registeredUser),
		Message: message,
	}, nil
}

// dispatchVerificationEmail sends the mail on a detached goroutine so SMTP
// latency never sits in the registration critical path.
func (srv *authService) dispatchVerificationEmail(ctx context.Context, email, token string) {
	detached := context.WithoutCancel(ctx)

	go func() {
		if err := srv.dispatcher.SendVerificationEmail(detached, email, token); err != nil {
			srv.logger.Warn("Failed to send verification email", slog.String("email", email), slog.Any("error", err))
		}
	}()
}

func resolveRegistrationRole(raw string) (entity.RoleName, error) {
	if raw == "" {
		return entity.RoleBuyer, nil
	}

	role, ok := entity.ParseRoleName(raw)
	if !ok || !role.Registerable() {
		return "", domainerrors.ErrValidationFailed.WithDetails("role must be BUYER or SELLER")
	}

	return role, nil
}

// Login authenticates a local account and issues tokens.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.userRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, srv.rejectWithUniformCost(ctx, input.Email, "unknown account")
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	if !user.EligibleForLogin() || user.PasswordHash == "" {
		// The account exists, so the attempt still counts toward lockout.
		if err := srv.recordFailedAttempt(ctx, input.Email); err != nil {
			srv.log(ctx).Error("Failed to record failed login attempt", slog.String("email", input.Email), slog.Any("error", err))
		}

		return nil, srv.rejectWithUniformCost(ctx, input.Email, "ineligible account")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		if err := srv.recordFailedAttempt(ctx, input.Email); err != nil {
			srv.log(ctx).Error("Failed to record failed login attempt", slog.String("email", input.Email), slog.Any("error", err))
		}

		return nil, domainerrors.ErrInvalidCredentials
	}

	expiry := srv.policy.CheckExpiry(user)
	if expiry.Expired {
		return nil, domainerrors.ErrPasswordExpired
	}

	now := time.Now()
	user.FailedLoginAttempts = 0
	user.LastLogin = &now
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to stamp login")
	}

	output, err := srv.issueTokens(user)
	if err != nil {
		return nil, err
	}
	output.PasswordExpiryWarning = expiry.Warning

	srv.log(ctx).Info("User logged in", slog.Any("userID", user.ID))

	return output, nil
}

// rejectWithUniformCost pays the bcrypt comparison the success path would
// have paid, then returns the generic credential error.
func (srv *authService) rejectWithUniformCost(ctx context.Context, email, reason string) error {
	srv.hasher.Check(uuid.NewString(), srv.dummyHash)
	srv.log(ctx).Info("Login rejected", slog.String("email", email), slog.String("reason", reason))

	return domainerrors.ErrInvalidCredentials
}

// recordFailedAttempt increments the counter under a row lock and locks the
// account when the threshold is reached. Runs in its own transaction so the
// increment commits regardless of the surrounding login outcome.
func (srv *authService) recordFailedAttempt(ctx context.Context, email string) error {
	return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		user, err := userRepo.FindByEmailForUpdate(ctx, email)
		if err != nil {
			return err
		}

		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= srv.maxFailedLogins {
			user.AccountLocked = true
			srv.log(ctx).Warn("Account locked after repeated failed logins",
				slog.Any("userID", user.ID),
				slog.Int("attempts", user.FailedLoginAttempts),
			)
		}

		return userRepo.Update(ctx, user)
	})
}

func (srv *authService) issueTokens(user *entity.User) (*usecase.LoginOutput, error) {
	accessToken, err := srv.tokenCodec.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}

	refreshToken, err := srv.tokenCodec.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(srv.tokenCodec.AccessTokenTTL().Seconds()),
		User:         usecase.NewUserSummary(user),
	}, nil
}

// CurrentUser returns the public projection of an authenticated account.
func (srv *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*usecase.UserSummary, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, errors.Wrap(err, "failed to load account")
	}

	return usecase.NewUserSummary(user), nil
}
