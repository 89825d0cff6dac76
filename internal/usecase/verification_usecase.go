package usecase

import (
	"context"

	"localbite/internal/domain/entity"
)

// VerifyEmailInput carries the opaque token from the verification link.
type VerifyEmailInput struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationInput identifies the account asking for a fresh token.
type ResendVerificationInput struct {
	Email string `json:"email" validate:"required,email"`
}

// VerificationStatusOutput reports whether an email address is confirmed.
type VerificationStatusOutput struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

// VerificationUsecase manages the email confirmation lifecycle.
type VerificationUsecase interface {
	// VerifyEmail redeems a token, marking the account verified.
	VerifyEmail(ctx context.Context, input *VerifyEmailInput) error

	// SendVerification issues and mails a token for an unverified account.
	// Verified accounts are skipped silently.
	SendVerification(ctx context.Context, user *entity.User) error

	// ResendVerification issues and mails a fresh token. Unknown addresses
	// and already-verified accounts are reported the same way to prevent
	// account enumeration.
	ResendVerification(ctx context.Context, input *ResendVerificationInput) error

	// Status reports the verification state for an email address.
	Status(ctx context.Context, email string) (*VerificationStatusOutput, error)

	// ManualVerify marks an account verified without a token. Only wired
	// when test routes are enabled.
	ManualVerify(ctx context.Context, email string) error
}
