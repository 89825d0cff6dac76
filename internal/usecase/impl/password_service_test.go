package impl

import (
	"context"
	"testing"
	"time"

	"localbite/internal/domain/entity"
	"localbite/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPasswordService(t *testing.T) (usecase.PasswordUsecase, *fakeUserRepo) {
	t.Helper()

	cfg := newTestConfig()
	userRepo := newFakeUserRepo()
	policy := NewPasswordPolicyService(PasswordPolicyParams{
		Config:      cfg,
		Hasher:      fakeHasher{},
		HistoryRepo: &fakeHistoryRepo{},
		Logger:      newDiscardLogger(),
	})

	svc := NewPasswordService(PasswordServiceParams{
		Policy:   policy,
		UserRepo: userRepo,
		Config:   cfg,
	})

	return svc, userRepo
}

func TestPasswordService_CheckStrength(t *testing.T) {
	svc, _ := createTestPasswordService(t)

	output, err := svc.CheckStrength(context.Background(), &usecase.PasswordCheckInput{
		Password:  "Tr!ckyM0untain#Sky",
		Email:     "jordan@example.com",
		FirstName: "Jordan",
		LastName:  "Lee",
	})
	require.NoError(t, err)
	assert.True(t, output.Valid)
	assert.Equal(t, "STRONG", output.Strength)
	assert.Empty(t, output.Violations)
}

func TestPasswordService_CheckStrength_ReportsViolationsAndSuggestions(t *testing.T) {
	svc, _ := createTestPasswordService(t)

	output, err := svc.CheckStrength(context.Background(), &usecase.PasswordCheckInput{
		Password: "qwerty",
	})
	require.NoError(t, err)
	assert.False(t, output.Valid)
	assert.NotEmpty(t, output.Violations)
	assert.NotEmpty(t, output.Suggestions)
}

func TestPasswordService_Requirements(t *testing.T) {
	svc, _ := createTestPasswordService(t)

	requirements, err := svc.Requirements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "STRICT", requirements.EnforcementLevel)
	assert.Equal(t, 8, requirements.MinLength)
	assert.Equal(t, 5, requirements.HistoryCount)
	assert.Equal(t, 90, requirements.ExpiryDays)

	// The display-ready hints restate the enabled rules.
	assert.Contains(t, requirements.Requirements, "Make it at least 10 characters long")
	assert.Contains(t, requirements.Requirements, "Include at least 1 number(s)")
}

func TestPasswordService_ExpiryStatus(t *testing.T) {
	svc, userRepo := createTestPasswordService(t)

	user := &entity.User{
		Email:     "jordan@example.com",
		FirstName: "Jordan",
		LastName:  "Lee",
		CreatedAt: time.Now().AddDate(0, 0, -85),
		UpdatedAt: time.Now().AddDate(0, 0, -85),
	}
	userRepo.add(user)

	output, err := svc.ExpiryStatus(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, output.Expired)
	assert.NotEmpty(t, output.Warning)
	assert.LessOrEqual(t, output.ExpiresInDays, 5)
}
