package middleware

import (
	"math"
	"net"
	"strconv"
	"strings"

	"localbite/internal/delivery/http/response"
	"localbite/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware wraps routes in a named token-bucket class.
type RateLimitMiddleware struct {
	limiter service.RateLimiter
}

// NewRateLimitMiddleware is the constructor for RateLimitMiddleware.
func NewRateLimitMiddleware(limiter service.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Limit throttles by client IP under the given class.
func (m *RateLimitMiddleware) Limit(class service.RateLimitClass) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return m.throttle(c, next, class, clientIP(c))
		}
	}
}

// LimitByUser throttles by the authenticated user's id under the given
// class, falling back to the client IP before authentication has run.
// It must be used AFTER the Authenticate middleware to key by user.
func (m *RateLimitMiddleware) LimitByUser(class service.RateLimitClass) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := clientIP(c)
			if user, ok := CurrentUser(c); ok {
				identity = "user:" + user.ID.String()
			}

			return m.throttle(c, next, class, identity)
		}
	}
}

func (m *RateLimitMiddleware) throttle(c echo.Context, next echo.HandlerFunc, class service.RateLimitClass, identity string) error {
	allowed := m.limiter.Allow(class, identity)
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(m.limiter.Remaining(class, identity), 10))

	if !allowed {
		retryAfter := m.limiter.RetryAfter(class, identity)
		seconds := int64(math.Ceil(retryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Response().Header().Set("Retry-After", strconv.FormatInt(seconds, 10))

		return response.TooManyRequests(c, "RATE_LIMITED",
			"Too many requests, please try again later",
			"class "+class.String()+", retry after "+strconv.FormatInt(seconds, 10)+" seconds")
	}

	return next(c)
}

// clientIP resolves the caller's address from proxy headers, falling back
// to the peer address. Placeholder "unknown" entries are skipped.
func clientIP(c echo.Context) string {
	headers := c.Request().Header

	if forwarded := headers.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" && !strings.EqualFold(first, "unknown") {
			return first
		}
	}

	for _, name := range []string{"X-Real-IP", "X-Forwarded"} {
		if value := strings.TrimSpace(headers.Get(name)); value != "" && !strings.EqualFold(value, "unknown") {
			return value
		}
	}

	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}

	return host
}
