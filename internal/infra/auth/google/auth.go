// Package google verifies Google ID tokens for federated login.
package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"localbite/config"
	"localbite/internal/domain/entity"
	"localbite/internal/domain/service"

	"github.com/pkg/errors"
)

// idTokenClaims represents the claims in a Google ID token.
type idTokenClaims struct {
	Iss           string `json:"iss"`            // Issuer
	Sub           string `json:"sub"`            // Subject (user ID)
	Aud           string `json:"aud"`            // Audience (client ID)
	Exp           int64  `json:"exp"`            // Expiration time
	Iat           int64  `json:"iat"`            // Issued at
	Email         string `json:"email"`          // User's email
	EmailVerified bool   `json:"email_verified"` // Email verification status
	Name          string `json:"name"`           // User's full name
	Picture       string `json:"picture"`        // User's profile picture
	GivenName     string `json:"given_name"`     // First name
	FamilyName    string `json:"family_name"`    // Last name
}

// Verifier implements service.IdentityVerifier for Google ID tokens.
type Verifier struct {
	clientID string
	logger   *slog.Logger
	now      func() time.Time
}

// NewVerifier creates the Google identity verifier.
func NewVerifier(cfg *config.Config, logger *slog.Logger) service.IdentityVerifier {
	clientID := ""
	if cfg.OAuth != nil && cfg.OAuth.Google != nil {
		clientID = cfg.OAuth.Google.ClientID
	}

	return &Verifier{
		clientID: clientID,
		logger:   logger,
		now:      time.Now,
	}
}

// Provider returns the provider this verifier handles.
func (v *Verifier) Provider() entity.AuthProvider {
	return entity.ProviderGoogle
}

// Verify checks the ID token and returns the raw profile attributes
// (sub, given_name, family_name, email, picture) on success.
func (v *Verifier) Verify(ctx context.Context, credential string) (map[string]any, error) {
	claims, err := v.parseIDToken(credential)
	if err != nil {
		v.logger.WarnContext(ctx, "Failed to parse Google ID token", slog.Any("error", err))

		return nil, errors.Wrap(err, "invalid ID token")
	}

	if err := v.verifyTokenClaims(claims); err != nil {
		v.logger.WarnContext(ctx, "Google ID token verification failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "token verification failed")
	}

	return map[string]any{
		"sub":            claims.Sub,
		"email":          claims.Email,
		"email_verified": claims.EmailVerified,
		"name":           claims.Name,
		"given_name":     claims.GivenName,
		"family_name":    claims.FamilyName,
		"picture":        claims.Picture,
	}, nil
}

// parseIDToken parses the JWT token and extracts claims
func (v *Verifier) parseIDToken(token string) (*idTokenClaims, error) {
	// Split the token into parts
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("invalid JWT format")
	}

	// Decode the payload (second part)
	decoded, err := base64Decode(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode token payload")
	}

	// Parse JSON claims
	var claims idTokenClaims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return nil, errors.Wrap(err, "failed to parse token claims")
	}

	return &claims, nil
}

// verifyTokenClaims verifies the token claims
func (v *Verifier) verifyTokenClaims(claims *idTokenClaims) error {
	// Check issuer
	if claims.Iss != "https://accounts.google.com" && claims.Iss != "accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", claims.Iss)
	}

	// Check audience (client ID)
	if claims.Aud != v.clientID {
		return errors.Errorf("invalid audience: expected %s, got %s", v.clientID, claims.Aud)
	}

	// Check expiration
	now := v.now().Unix()
	if claims.Exp < now {
		return errors.Errorf("token expired: expired at %d, current time %d", claims.Exp, now)
	}

	// Check email verification
	if !claims.EmailVerified {
		return errors.New("email not verified")
	}

	return nil
}

// base64Decode decodes base64 URL-safe string
func base64Decode(str string) ([]byte, error) {
	// Replace URL-safe characters
	str = strings.ReplaceAll(str, "-", "+")
	str = strings.ReplaceAll(str, "_", "/")

	// Add padding if needed
	if len(str)%4 != 0 {
		str += strings.Repeat("=", 4-len(str)%4)
	}

	decoded, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode base64 string")
	}

	return decoded, nil
}
