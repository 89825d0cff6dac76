package impl

import (
	"context"
	"testing"
	"time"

	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authServiceFixtures holds the shared in-memory world for auth tests.
type authServiceFixtures struct {
	service    usecase.AuthUsecase
	userRepo   *fakeUserRepo
	roleRepo   *fakeRoleRepo
	tokenRepo  *fakeTokenRepo
	dispatcher *fakeDispatcher
}

func createTestAuthService(t *testing.T) authServiceFixtures {
	t.Helper()

	userRepo := newFakeUserRepo()
	roleRepo := newFakeRoleRepo()
	historyRepo := &fakeHistoryRepo{}
	tokenRepo := newFakeTokenRepo()
	dispatcher := newFakeDispatcher()
	factory := &fakeRepoFactory{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		historyRepo: historyRepo,
		tokenRepo:   tokenRepo,
	}

	cfg := newTestConfig()
	policy := NewPasswordPolicyService(PasswordPolicyParams{
		Config:      cfg,
		Hasher:      fakeHasher{},
		HistoryRepo: historyRepo,
		Logger:      newDiscardLogger(),
	})

	service, err := NewAuthService(AuthServiceParams{
		TxManager:  &fakeTxManager{factory: factory},
		UserRepo:   userRepo,
		Hasher:     fakeHasher{},
		TokenCodec: fakeTokenCodec{},
		Policy:     policy,
		Dispatcher: dispatcher,
		Config:     cfg,
		Logger:     newDiscardLogger(),
	})
	require.NoError(t, err)

	return authServiceFixtures{
		service:    service,
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		tokenRepo:  tokenRepo,
		dispatcher: dispatcher,
	}
}

func registerInput() *usecase.RegisterInput {
	return &usecase.RegisterInput{
		Email:     "jordan@example.com",
		Password:  "Tr!ckyM0untain#Sky",
		FirstName: "Jordan",
		LastName:  "Lee",
		Role:      "BUYER",
		ClientIP:  "192.0.2.1",
		UserAgent: "test-agent",
	}
}

func verifiedUser(fx authServiceFixtures, email, password string) *entity.User {
	hash, _ := fakeHasher{}.Hash(password)
	user := &entity.User{
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Jordan",
		LastName:      "Lee",
		EmailVerified: true,
		Enabled:       true,
		Provider:      entity.ProviderLocal,
		Roles:         []entity.Role{{ID: 1, Name: entity.RoleBuyer}},
		CreatedAt:     time.Now().AddDate(0, 0, -1),
		UpdatedAt:     time.Now().AddDate(0, 0, -1),
	}
	fx.userRepo.add(user)

	return user
}

func TestAuthService_Register_Success(t *testing.T) {
	fx := createTestAuthService(t)

	output, err := fx.service.Register(context.Background(), registerInput())
	require.NoError(t, err)
	require.NotNil(t, output.User)
	assert.Equal(t, "jordan@example.com", output.User.Email)
	assert.False(t, output.User.EmailVerified)
	assert.Equal(t, []string{"BUYER"}, output.User.Roles)

	// The account is persisted but cannot log in until verified.
	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.True(t, stored.Enabled)
	assert.False(t, stored.EmailVerified)
	assert.Equal(t, entity.ProviderLocal, stored.Provider)

	// A verification token exists and the mail goes out asynchronously.
	assert.True(t, fx.dispatcher.waitForSend(2*time.Second))
	assert.Equal(t, 1, fx.dispatcher.sentCount())
}

func TestAuthService_Register_DuplicateEmailLooksLikeSuccess(t *testing.T) {
	fx := createTestAuthService(t)
	verifiedUser(fx, "jordan@example.com", "Existing#Passw0rd!")

	output, err := fx.service.Register(context.Background(), registerInput())
	require.NoError(t, err)

	// Success-shaped answer, but nothing was created and no mail goes out.
	assert.Nil(t, output.User)
	assert.NotEmpty(t, output.Message)
	assert.False(t, fx.dispatcher.waitForSend(50*time.Millisecond))

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jordan", stored.FirstName)
}

func TestAuthService_Register_RejectsAdminRole(t *testing.T) {
	fx := createTestAuthService(t)

	input := registerInput()
	input.Role = "ADMIN"

	output, err := fx.service.Register(context.Background(), input)
	assert.Nil(t, output)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_FAILED", appErr.ErrorCode())
}

func TestAuthService_Register_DefaultsToBuyerRole(t *testing.T) {
	fx := createTestAuthService(t)

	input := registerInput()
	input.Role = ""

	output, err := fx.service.Register(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []string{"BUYER"}, output.User.Roles)
}

func TestAuthService_Register_RejectsPolicyViolation(t *testing.T) {
	fx := createTestAuthService(t)

	input := registerInput()
	input.Password = "weak"

	output, err := fx.service.Register(context.Background(), input)
	assert.Nil(t, output)
	require.Error(t, err)

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PASSWORD_POLICY_VIOLATION", appErr.ErrorCode())
}

func TestAuthService_Register_RejectsPasswordContainingName(t *testing.T) {
	fx := createTestAuthService(t)

	input := registerInput()
	input.Password = "Jordan!M0untain#Sky"

	_, err := fx.service.Register(context.Background(), input)
	require.Error(t, err)
}

func TestAuthService_Login_Success(t *testing.T) {
	fx := createTestAuthService(t)
	verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "Tr!ckyM0untain#Sky",
	})
	require.NoError(t, err)

	assert.Equal(t, "access:jordan@example.com", output.AccessToken)
	assert.Equal(t, "refresh:jordan@example.com", output.RefreshToken)
	assert.Equal(t, "Bearer", output.TokenType)
	assert.Equal(t, int64(3600), output.ExpiresIn)
	assert.Empty(t, output.PasswordExpiryWarning)

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestAuthService_Login_UnknownAccount(t *testing.T) {
	fx := createTestAuthService(t)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_WrongPasswordIncrementsCounter(t *testing.T) {
	fx := createTestAuthService(t)
	verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.FailedLoginAttempts)
	assert.False(t, stored.AccountLocked)
}

func TestAuthService_Login_LocksAfterThreshold(t *testing.T) {
	fx := createTestAuthService(t)
	verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")

	for i := 0; i < 5; i++ {
		_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
			Email:    "jordan@example.com",
			Password: "wrong-password",
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.True(t, stored.AccountLocked)
	assert.Equal(t, 5, stored.FailedLoginAttempts)

	// Even the right password is refused now, with the same generic error.
	_, err = fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "Tr!ckyM0untain#Sky",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_IneligibleAccounts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.User)
	}{
		{name: "unverified email", mutate: func(u *entity.User) { u.EmailVerified = false }},
		{name: "locked account", mutate: func(u *entity.User) { u.AccountLocked = true }},
		{name: "disabled account", mutate: func(u *entity.User) { u.Enabled = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestAuthService(t)
			user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")
			tt.mutate(user)
			fx.userRepo.add(user)

			output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
				Email:    "jordan@example.com",
				Password: "Tr!ckyM0untain#Sky",
			})
			assert.Nil(t, output)

			// The caller cannot tell which gate failed.
			assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

			// The attempt still counts toward lockout even though the
			// password was never checked.
			stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
			require.NoError(t, err)
			assert.Equal(t, 1, stored.FailedLoginAttempts)
		})
	}
}

func TestAuthService_Login_UnverifiedAccountLocksAfterThreshold(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")
	user.EmailVerified = false
	fx.userRepo.add(user)

	for i := 0; i < 5; i++ {
		_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
			Email:    "jordan@example.com",
			Password: "Tr!ckyM0untain#Sky",
		})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.True(t, stored.AccountLocked)
	assert.Equal(t, 5, stored.FailedLoginAttempts)
}

func TestAuthService_Login_FederatedAccountHasNoPassword(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "irrelevant")
	user.PasswordHash = ""
	user.Provider = entity.ProviderGoogle
	fx.userRepo.add(user)

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "anything",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_ExpiredPassword(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")
	user.CreatedAt = time.Now().AddDate(0, 0, -120)
	user.UpdatedAt = time.Now().AddDate(0, 0, -120)
	fx.userRepo.add(user)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "Tr!ckyM0untain#Sky",
	})
	assert.Nil(t, output)
	assert.ErrorIs(t, err, domainerrors.ErrPasswordExpired)
}

func TestAuthService_Login_ExpiryWarning(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")
	user.CreatedAt = time.Now().AddDate(0, 0, -85)
	user.UpdatedAt = time.Now().AddDate(0, 0, -85)
	fx.userRepo.add(user)

	output, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "Tr!ckyM0untain#Sky",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, output.PasswordExpiryWarning)
}

func TestAuthService_Login_SuccessResetsFailedAttempts(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")
	user.FailedLoginAttempts = 3
	fx.userRepo.add(user)

	_, err := fx.service.Login(context.Background(), &usecase.LoginInput{
		Email:    "jordan@example.com",
		Password: "Tr!ckyM0untain#Sky",
	})
	require.NoError(t, err)

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestAuthService_CurrentUser(t *testing.T) {
	fx := createTestAuthService(t)
	user := verifiedUser(fx, "jordan@example.com", "Tr!ckyM0untain#Sky")

	summary, err := fx.service.CurrentUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, summary.Email)
	assert.Equal(t, []string{"BUYER"}, summary.Roles)
}

func TestAuthService_CurrentUser_NotFound(t *testing.T) {
	fx := createTestAuthService(t)

	summary, err := fx.service.CurrentUser(context.Background(), uuid.New())
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
