// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"localbite/config"
	"localbite/internal/domain/entity"
	"localbite/internal/domain/service"
)

// jwtCodec is a concrete implementation of the TokenCodec interface using the JWT standard.
// The signing key is decoded once at construction and never re-read.
type jwtCodec struct {
	key        []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTCodec is the constructor for jwtCodec. It decodes and validates the
// Base64 signing key; a missing, malformed, or short key fails startup.
func NewJWTCodec(cfg *config.Config) (service.TokenCodec, error) {
	if cfg.JWT == nil || cfg.JWT.Secret == "" {
		return nil, errors.New("jwt signing key must be provided")
	}

	key, err := base64.StdEncoding.DecodeString(cfg.JWT.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "jwt signing key is not valid base64")
	}
	if len(key) < config.MinSigningKeyBytes() {
		return nil, errors.Errorf("jwt signing key must decode to at least %d bytes, got %d",
			config.MinSigningKeyBytes(), len(key))
	}

	return &jwtCodec{
		key:        key,
		issuer:     cfg.JWT.Issuer,
		audience:   cfg.JWT.Audience,
		accessTTL:  cfg.JWT.AccessTTL,
		refreshTTL: cfg.JWT.RefreshTTL,
		now:        time.Now,
	}, nil
}

// GenerateAccessToken creates a signed access token for the user.
// The subject is the account email; identity claims ride alongside so the
// frontend can render without an extra profile call.
func (c *jwtCodec) GenerateAccessToken(user *entity.User) (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"sub":           user.Email,
		"iss":           c.issuer,
		"aud":           c.audience,
		"iat":           now.Unix(),
		"exp":           now.Add(c.accessTTL).Unix(),
		"userId":        user.ID.String(),
		"firstName":     user.FirstName,
		"lastName":      user.LastName,
		"emailVerified": user.EmailVerified,
		"roles":         user.Authorities(),
		"provider":      user.Provider.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}

	return signed, nil
}

// GenerateRefreshToken creates a signed refresh token carrying only the user
// id and the tokenType marker.
func (c *jwtCodec) GenerateRefreshToken(user *entity.User) (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"sub":       user.Email,
		"iss":       c.issuer,
		"aud":       c.audience,
		"iat":       now.Unix(),
		"exp":       now.Add(c.refreshTTL).Unix(),
		"userId":    user.ID.String(),
		"tokenType": "refresh",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign refresh token")
	}

	return signed, nil
}

// Validate reports whether the token was issued to the given user and is
// still valid. Every failure mode maps to false; a broken token must never
// authenticate anyone.
func (c *jwtCodec) Validate(tokenString string, user *entity.User) bool {
	if user == nil || tokenString == "" {
		return false
	}

	claims, err := c.parse(tokenString)
	if err != nil {
		return false
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return false
	}

	return subject == user.Email
}

// IsRefreshToken reports whether the token carries the refresh marker.
func (c *jwtCodec) IsRefreshToken(tokenString string) bool {
	claims, err := c.parse(tokenString)
	if err != nil {
		return false
	}

	tokenType, _ := claims["tokenType"].(string)

	return tokenType == "refresh"
}

// Subject extracts the subject (account email) from the token.
func (c *jwtCodec) Subject(tokenString string) (string, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return "", err
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return "", errors.Wrap(err, "token has no subject")
	}

	return subject, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *jwtCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// parse verifies the signature and registered claims (exp included) and
// returns the claim set.
func (c *jwtCodec) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Ensure the signing method is what we expect.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}

		return c.key, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token")
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	return claims, nil
}
