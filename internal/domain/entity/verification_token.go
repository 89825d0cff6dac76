package entity

import (
	"time"

	"github.com/google/uuid"
)

// VerificationToken is a single-use, time-limited token mailed to a user to
// confirm ownership of their email address.
type VerificationToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Expired reports whether the token has passed its expiry time.
func (t *VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Usable reports whether the token can still redeem a verification.
func (t *VerificationToken) Usable(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}
