package impl

import (
	"context"
	"testing"
	"time"

	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixtures struct {
	service  usecase.AdminUsecase
	userRepo *fakeUserRepo
}

func createTestAdminService(t *testing.T) adminFixtures {
	t.Helper()

	userRepo := newFakeUserRepo()
	factory := &fakeRepoFactory{
		userRepo:    userRepo,
		roleRepo:    newFakeRoleRepo(),
		historyRepo: &fakeHistoryRepo{},
		tokenRepo:   newFakeTokenRepo(),
	}

	svc := NewAdminService(AdminServiceParams{
		TxManager: &fakeTxManager{factory: factory},
		UserRepo:  userRepo,
		Logger:    newDiscardLogger(),
	})

	return adminFixtures{service: svc, userRepo: userRepo}
}

func adminTarget(fx adminFixtures) *entity.User {
	user := &entity.User{
		Email:         "target@example.com",
		FirstName:     "Sam",
		LastName:      "Chen",
		EmailVerified: true,
		Enabled:       true,
		Provider:      entity.ProviderLocal,
	}
	fx.userRepo.add(user)

	return user
}

func adminInput() *usecase.AdminAccountInput {
	return &usecase.AdminAccountInput{Email: "target@example.com"}
}

func assertConflict(t *testing.T, err error) {
	t.Helper()

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.ErrorCode())
}

func TestAdminService_LockAndUnlock(t *testing.T) {
	fx := createTestAdminService(t)
	adminTarget(fx)

	require.NoError(t, fx.service.LockAccount(context.Background(), adminInput()))

	stored, _ := fx.userRepo.FindByEmail(context.Background(), "target@example.com")
	assert.True(t, stored.AccountLocked)

	// Locking twice is a conflict.
	assertConflict(t, fx.service.LockAccount(context.Background(), adminInput()))

	require.NoError(t, fx.service.UnlockAccount(context.Background(), adminInput()))

	stored, _ = fx.userRepo.FindByEmail(context.Background(), "target@example.com")
	assert.False(t, stored.AccountLocked)
	assert.Zero(t, stored.FailedLoginAttempts)

	assertConflict(t, fx.service.UnlockAccount(context.Background(), adminInput()))
}

func TestAdminService_UnlockClearsFailedAttempts(t *testing.T) {
	fx := createTestAdminService(t)
	user := adminTarget(fx)
	user.AccountLocked = true
	user.FailedLoginAttempts = 5
	fx.userRepo.add(user)

	require.NoError(t, fx.service.UnlockAccount(context.Background(), adminInput()))

	stored, _ := fx.userRepo.FindByEmail(context.Background(), "target@example.com")
	assert.Zero(t, stored.FailedLoginAttempts)
}

func TestAdminService_EnableAndDisable(t *testing.T) {
	fx := createTestAdminService(t)
	adminTarget(fx)

	// Enabling an enabled account is a conflict.
	assertConflict(t, fx.service.EnableAccount(context.Background(), adminInput()))

	require.NoError(t, fx.service.DisableAccount(context.Background(), adminInput()))

	stored, _ := fx.userRepo.FindByEmail(context.Background(), "target@example.com")
	assert.False(t, stored.Enabled)

	assertConflict(t, fx.service.DisableAccount(context.Background(), adminInput()))

	require.NoError(t, fx.service.EnableAccount(context.Background(), adminInput()))
}

func TestAdminService_ResetFailedAttempts(t *testing.T) {
	fx := createTestAdminService(t)
	user := adminTarget(fx)
	user.FailedLoginAttempts = 4
	fx.userRepo.add(user)

	output, err := fx.service.ResetFailedAttempts(context.Background(), adminInput())
	require.NoError(t, err)
	assert.Equal(t, 4, output.PreviousAttempts)

	// Resetting an already-zero counter is not an error.
	output, err = fx.service.ResetFailedAttempts(context.Background(), adminInput())
	require.NoError(t, err)
	assert.Zero(t, output.PreviousAttempts)
}

func TestAdminService_AccountStatus(t *testing.T) {
	fx := createTestAdminService(t)
	user := adminTarget(fx)
	user.AccountLocked = true
	user.FailedLoginAttempts = 2
	user.Roles = []entity.Role{{ID: 1, Name: entity.RoleBuyer}, {ID: 2, Name: entity.RoleSeller}}
	lastLogin := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	user.LastLogin = &lastLogin
	fx.userRepo.add(user)

	status, err := fx.service.AccountStatus(context.Background(), "target@example.com")
	require.NoError(t, err)
	assert.True(t, status.AccountLocked)
	assert.True(t, status.Enabled)
	assert.Equal(t, 2, status.FailedLoginAttempts)
	assert.Equal(t, []string{"ROLE_BUYER", "ROLE_SELLER"}, status.Roles)
	assert.Equal(t, "LOCAL", status.Provider)
	require.NotNil(t, status.LastLogin)
	assert.Equal(t, lastLogin, *status.LastLogin)
}

func TestAdminService_UnknownAccount(t *testing.T) {
	fx := createTestAdminService(t)

	err := fx.service.LockAccount(context.Background(), &usecase.AdminAccountInput{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)

	_, err = fx.service.AccountStatus(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
