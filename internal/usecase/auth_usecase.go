// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"localbite/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new local account.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required"`
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
	Role        string `json:"role" validate:"omitempty,max=32"`

	// ClientIP and UserAgent are filled by the handler for the audit trail.
	ClientIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Output DTOs ---

// UserSummary is the caller-visible projection of an account. It never
// carries the password hash or internal counters.
type UserSummary struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	PhoneNumber   string     `json:"phoneNumber,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	Roles         []string   `json:"roles"`
	Provider      string     `json:"provider"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NewUserSummary maps a domain user onto its API projection.
func NewUserSummary(user *entity.User) *UserSummary {
	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, role.Name.String())
	}

	return &UserSummary{
		ID:            user.ID,
		Email:         user.Email,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		PhoneNumber:   user.PhoneNumber,
		EmailVerified: user.EmailVerified,
		Roles:         roles,
		Provider:      user.Provider.String(),
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
	}
}

// RegisterOutput returns the newly created account. For duplicate emails the
// response looks identical to a fresh registration except that no
// verification mail goes out, so callers cannot probe for existing accounts.
type RegisterOutput struct {
	User    *UserSummary `json:"user"`
	Message string       `json:"message"`
}

// LoginOutput returns the generated tokens after a successful login.
type LoginOutput struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int64        `json:"expiresIn"`
	User         *UserSummary `json:"user"`

	// PasswordExpiryWarning is set when the password expires within the
	// configured warning window.
	PasswordExpiryWarning string `json:"passwordExpiryWarning,omitempty"`
}

// AuthUsecase defines the interface for registration and credential login.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*UserSummary, error)
}
