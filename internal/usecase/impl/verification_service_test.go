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

type verificationFixtures struct {
	service    usecase.VerificationUsecase
	userRepo   *fakeUserRepo
	tokenRepo  *fakeTokenRepo
	dispatcher *fakeDispatcher
}

func createTestVerificationService(t *testing.T) verificationFixtures {
	t.Helper()

	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	dispatcher := newFakeDispatcher()
	factory := &fakeRepoFactory{
		userRepo:    userRepo,
		roleRepo:    newFakeRoleRepo(),
		historyRepo: &fakeHistoryRepo{},
		tokenRepo:   tokenRepo,
	}

	svc := NewVerificationService(VerificationServiceParams{
		TxManager:  &fakeTxManager{factory: factory},
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
		Config:     newTestConfig(),
		Logger:     newDiscardLogger(),
	})

	return verificationFixtures{
		service:    svc,
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		dispatcher: dispatcher,
	}
}

func unverifiedUser(fx verificationFixtures) *entity.User {
	user := &entity.User{
		Email:     "jordan@example.com",
		FirstName: "Jordan",
		LastName:  "Lee",
		Enabled:   true,
		Provider:  entity.ProviderLocal,
	}
	fx.userRepo.add(user)

	return user
}

func issueTestToken(fx verificationFixtures, user *entity.User, mutate func(*entity.VerificationToken)) *entity.VerificationToken {
	token := &entity.VerificationToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if mutate != nil {
		mutate(token)
	}
	_ = fx.tokenRepo.Create(context.Background(), token)

	return token
}

func TestVerificationService_VerifyEmail_Success(t *testing.T) {
	fx := createTestVerificationService(t)
	user := unverifiedUser(fx)
	token := issueTestToken(fx, user, nil)

	err := fx.service.VerifyEmail(context.Background(), &usecase.VerifyEmailInput{Token: token.Token})
	require.NoError(t, err)

	stored, err := fx.userRepo.FindByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// The token is spent; redeeming again fails.
	err = fx.service.VerifyEmail(context.Background(), &usecase.VerifyEmailInput{Token: token.Token})
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)
}

func TestVerificationService_VerifyEmail_UnknownToken(t *testing.T) {
	fx := createTestVerificationService(t)

	err := fx.service.VerifyEmail(context.Background(), &usecase.VerifyEmailInput{Token: "no-such-token"})
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)
}

func TestVerificationService_VerifyEmail_ExpiredToken(t *testing.T) {
	fx := createTestVerificationService(t)
	user := unverifiedUser(fx)
	token := issueTestToken(fx, user, func(tok *entity.VerificationToken) {
		tok.ExpiresAt = time.Now().Add(-time.Minute)
	})

	err := fx.service.VerifyEmail(context.Background(), &usecase.VerifyEmailInput{Token: token.Token})
	assert.ErrorIs(t, err, domainerrors.ErrVerificationTokenInvalid)

	stored, err := fx.userRepo.FindByEmail(context.Background(), user.Email)
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)
}

func TestVerificationService_ResendVerification(t *testing.T) {
	fx := createTestVerificationService(t)
	unverifiedUser(fx)

	err := fx.service.ResendVerification(context.Background(), &usecase.ResendVerificationInput{
		Email: "jordan@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.dispatcher.sentCount())
}

func TestVerificationService_ResendVerification_UnknownEmailLooksLikeSuccess(t *testing.T) {
	fx := createTestVerificationService(t)

	err := fx.service.ResendVerification(context.Background(), &usecase.ResendVerificationInput{
		Email: "nobody@example.com",
	})
	assert.NoError(t, err)
	assert.Zero(t, fx.dispatcher.sentCount())
}

func TestVerificationService_ResendVerification_AlreadyVerified(t *testing.T) {
	fx := createTestVerificationService(t)
	user := unverifiedUser(fx)
	user.EmailVerified = true
	fx.userRepo.add(user)

	err := fx.service.ResendVerification(context.Background(), &usecase.ResendVerificationInput{
		Email: "jordan@example.com",
	})
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyVerified)
}

func TestVerificationService_SendVerification_SkipsVerified(t *testing.T) {
	fx := createTestVerificationService(t)
	user := unverifiedUser(fx)
	user.EmailVerified = true

	err := fx.service.SendVerification(context.Background(), user)
	assert.NoError(t, err)
	assert.Zero(t, fx.dispatcher.sentCount())
}

func TestVerificationService_Status(t *testing.T) {
	fx := createTestVerificationService(t)
	unverifiedUser(fx)

	status, err := fx.service.Status(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.False(t, status.EmailVerified)

	_, err = fx.service.Status(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}

func TestVerificationService_ManualVerify(t *testing.T) {
	fx := createTestVerificationService(t)
	unverifiedUser(fx)

	require.NoError(t, fx.service.ManualVerify(context.Background(), "jordan@example.com"))

	stored, err := fx.userRepo.FindByEmail(context.Background(), "jordan@example.com")
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// Verifying twice is an explicit error.
	err = fx.service.ManualVerify(context.Background(), "jordan@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrEmailAlreadyVerified)
}
