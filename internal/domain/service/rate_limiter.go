package service

import "time"

// RateLimitClass identifies a group of endpoints sharing a token-bucket configuration.
type RateLimitClass string

const (
	RateLimitGlobal            RateLimitClass = "GLOBAL"
	RateLimitLogin             RateLimitClass = "LOGIN"
	RateLimitRegister          RateLimitClass = "REGISTER"
	RateLimitEmailVerification RateLimitClass = "EMAIL_VERIFICATION"
	RateLimitPasswordReset     RateLimitClass = "PASSWORD_RESET"
	RateLimitAdmin             RateLimitClass = "ADMIN"
)

// String returns the string representation of the RateLimitClass.
func (c RateLimitClass) String() string {
	return string(c)
}

// RateLimiter defines the interface for per-class, per-identity request throttling.
// Identity is either a client IP or a "user:<id>" key.
type RateLimiter interface {
	// Allow consumes one token from the bucket for (class, identity) and
	// reports whether the request may proceed.
	Allow(class RateLimitClass, identity string) bool

	// Remaining returns the token count currently left in the bucket.
	Remaining(class RateLimitClass, identity string) int64

	// RetryAfter returns how long a denied caller should wait before retrying.
	// Zero means the bucket has tokens available.
	RetryAfter(class RateLimitClass, identity string) time.Duration
}
