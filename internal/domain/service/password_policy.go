package service

import (
	"context"

	"localbite/internal/domain/entity"
)

// PasswordEvaluation is the full policy verdict for a candidate password.
type PasswordEvaluation struct {
	Valid       bool
	Score       int
	Strength    string
	Violations  []string
	Suggestions []string
}

// PasswordExpiry reports how close a password is to its configured expiry.
type PasswordExpiry struct {
	Expired       bool
	DaysRemaining int
	Warning       string
}

// PasswordPolicy enforces the password composition, reuse and expiry rules.
type PasswordPolicy interface {
	// Validate checks a candidate password for the given user and returns a
	// policy violation error listing every failed rule, or nil.
	// The user may be a transient shell during registration.
	Validate(ctx context.Context, candidate string, user *entity.User) error

	// Evaluate returns the full verdict without turning it into an error.
	Evaluate(ctx context.Context, candidate string, user *entity.User) *PasswordEvaluation

	// Suggestions renders the enabled rules as human-readable advice,
	// independent of any candidate password.
	Suggestions() []string

	// RecordHistory stores a hash in the reuse audit trail and prunes old
	// entries. Failures are logged, never propagated; history is best effort.
	RecordHistory(ctx context.Context, entry *entity.PasswordHistory)

	// CheckExpiry reports the expiry state for the user's current password.
	CheckExpiry(user *entity.User) PasswordExpiry
}
