package service

import (
	"time"

	"localbite/internal/domain/entity"
)

// TokenCodec defines the interface for issuing and checking JWTs.
// This abstracts the details of token creation from the use cases.
type TokenCodec interface {
	// GenerateAccessToken creates a signed access token carrying the user's
	// identity claims and ROLE_-prefixed authorities.
	GenerateAccessToken(user *entity.User) (string, error)

	// GenerateRefreshToken creates a signed refresh token carrying only the
	// user id and a tokenType marker.
	GenerateRefreshToken(user *entity.User) (string, error)

	// Validate reports whether the token is well-formed, unexpired, and was
	// issued to the given user. Any parse or signature failure yields false.
	Validate(token string, user *entity.User) bool

	// IsRefreshToken reports whether the token carries the refresh marker.
	// Unparseable tokens are not refresh tokens.
	IsRefreshToken(token string) bool

	// Subject extracts the subject (the account email) from the token.
	Subject(token string) (string, error)

	// AccessTokenTTL returns the configured access token lifetime.
	AccessTokenTTL() time.Duration
}
