package usecase

import (
	"context"
	"time"
)

// AdminAccountInput identifies the account an administrator acts on.
type AdminAccountInput struct {
	Email string `json:"email" validate:"required,email"`
}

// AccountStatusOutput is the administrative view of an account: every
// login gate plus provenance and activity timestamps.
type AccountStatusOutput struct {
	Email               string     `json:"email"`
	EmailVerified       bool       `json:"emailVerified"`
	AccountLocked       bool       `json:"accountLocked"`
	Enabled             bool       `json:"enabled"`
	FailedLoginAttempts int        `json:"failedLoginAttempts"`
	Roles               []string   `json:"roles"`
	Provider            string     `json:"provider"`
	LastLogin           *time.Time `json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// ResetFailedAttemptsOutput reports the counter value before the reset.
type ResetFailedAttemptsOutput struct {
	Email            string `json:"email"`
	PreviousAttempts int    `json:"previousAttempts"`
}

// AdminUsecase covers the operator actions on account security state.
// Lock, unlock, enable and disable are idempotency-checked: repeating an
// action that is already in effect is a conflict, not a silent no-op.
type AdminUsecase interface {
	LockAccount(ctx context.Context, input *AdminAccountInput) error
	UnlockAccount(ctx context.Context, input *AdminAccountInput) error
	EnableAccount(ctx context.Context, input *AdminAccountInput) error
	DisableAccount(ctx context.Context, input *AdminAccountInput) error
	ResetFailedAttempts(ctx context.Context, input *AdminAccountInput) (*ResetFailedAttemptsOutput, error)
	AccountStatus(ctx context.Context, email string) (*AccountStatusOutput, error)
}
