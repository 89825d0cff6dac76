package service

import "context"

// EmailDispatcher defines the interface for sending account emails.
// Dispatch is best-effort: callers treat failures as log-and-continue and
// never block a registration on mail delivery.
type EmailDispatcher interface {
	// SendVerificationEmail sends the email ownership confirmation mail
	// containing the verification token.
	SendVerificationEmail(ctx context.Context, recipient, token string) error
}
