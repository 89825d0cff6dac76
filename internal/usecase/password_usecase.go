package usecase

import (
	"context"

	"github.com/google/uuid"
)

// PasswordCheckInput carries a candidate password plus the personal
// information it must not contain.
type PasswordCheckInput struct {
	Password  string `json:"password" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// PasswordCheckOutput reports the policy verdict for a candidate password.
type PasswordCheckOutput struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"score"`
	Strength    string   `json:"strength"`
	Violations  []string `json:"violations,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// PasswordRequirementsOutput describes the active policy so clients can
// render live validation hints.
type PasswordRequirementsOutput struct {
	Enabled          bool   `json:"enabled"`
	EnforcementLevel string `json:"enforcementLevel"`
	MinLength        int    `json:"minLength"`
	MaxLength        int    `json:"maxLength"`
	RequireUppercase bool   `json:"requireUppercase"`
	RequireLowercase bool   `json:"requireLowercase"`
	RequireDigits    bool   `json:"requireDigits"`
	RequireSpecial   bool   `json:"requireSpecial"`
	MinDigits        int    `json:"minDigits"`
	MinSpecialChars  int    `json:"minSpecialChars"`
	MaxRepeatedChars int    `json:"maxRepeatedChars"`
	HistoryCount     int    `json:"historyCount"`
	ExpiryDays       int    `json:"expiryDays"`
	// Requirements restates the enabled rules as display-ready hints.
	Requirements []string `json:"requirements"`
}

// PasswordExpiryOutput reports how close a password is to expiry.
type PasswordExpiryOutput struct {
	Expired       bool   `json:"expired"`
	ExpiresInDays int    `json:"expiresInDays"`
	Warning       string `json:"warning,omitempty"`
}

// PasswordUsecase exposes the password policy engine to the delivery layer.
type PasswordUsecase interface {
	// CheckStrength evaluates a candidate password against the policy
	// without persisting anything.
	CheckStrength(ctx context.Context, input *PasswordCheckInput) (*PasswordCheckOutput, error)

	// Requirements returns the active policy configuration.
	Requirements(ctx context.Context) (*PasswordRequirementsOutput, error)

	// ExpiryStatus reports the expiry state for an authenticated user.
	ExpiryStatus(ctx context.Context, userID uuid.UUID) (*PasswordExpiryOutput, error)
}
