package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"localbite/config"
	"localbite/internal/domain/service"
	"localbite/internal/infra/ratelimit"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter() service.RateLimiter {
	cfg := &config.Config{
		RateLimit: &config.RateLimitConfig{
			Enabled:     true,
			CacheSize:   128,
			CacheExpiry: time.Minute,
			Global:      config.RateLimitClassConfig{Capacity: 100, RefillTokens: 100, RefillPeriod: time.Minute},
			Login:       config.RateLimitClassConfig{Capacity: 2, RefillTokens: 1, RefillPeriod: 5 * time.Minute},
			Admin:       config.RateLimitClassConfig{Capacity: 2, RefillTokens: 1, RefillPeriod: time.Minute},
		},
	}

	return ratelimit.New(ratelimit.Params{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func performRequest(e *echo.Echo, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.7:54321"
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestRateLimitMiddleware_ExhaustionReturns429(t *testing.T) {
	e := echo.New()
	m := NewRateLimitMiddleware(newTestLimiter())
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, m.Limit(service.RateLimitLogin))

	assert.Equal(t, http.StatusOK, performRequest(e, nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(e, nil).Code)

	rec := performRequest(e, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	// The body names the limiting class so clients can tell which budget
	// they exhausted.
	assert.Contains(t, rec.Body.String(), service.RateLimitLogin.String())
	assert.Contains(t, rec.Body.String(), "retry after")
}

func TestRateLimitMiddleware_RemainingHeader(t *testing.T) {
	e := echo.New()
	m := NewRateLimitMiddleware(newTestLimiter())
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, m.Limit(service.RateLimitLogin))

	rec := performRequest(e, nil)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitMiddleware_SeparateIdentities(t *testing.T) {
	e := echo.New()
	m := NewRateLimitMiddleware(newTestLimiter())
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, m.Limit(service.RateLimitLogin))

	first := map[string]string{"X-Forwarded-For": "198.51.100.1"}
	second := map[string]string{"X-Forwarded-For": "198.51.100.2"}

	assert.Equal(t, http.StatusOK, performRequest(e, first).Code)
	assert.Equal(t, http.StatusOK, performRequest(e, first).Code)
	assert.Equal(t, http.StatusTooManyRequests, performRequest(e, first).Code)

	// A different caller still has a full bucket.
	assert.Equal(t, http.StatusOK, performRequest(e, second).Code)
}

func TestClientIP_HeaderPrecedence(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{
			name:     "forwarded-for first entry wins",
			headers:  map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1", "X-Real-IP": "192.0.2.1"},
			expected: "198.51.100.9",
		},
		{
			name:     "unknown forwarded-for falls through to real-ip",
			headers:  map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "192.0.2.1"},
			expected: "192.0.2.1",
		},
		{
			name:     "x-forwarded used when others missing",
			headers:  map[string]string{"X-Forwarded": "192.0.2.77"},
			expected: "192.0.2.77",
		},
		{
			name:     "falls back to peer address",
			headers:  nil,
			expected: "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.7:54321"
			for name, value := range tt.headers {
				req.Header.Set(name, value)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			assert.Equal(t, tt.expected, clientIP(c))
		})
	}
}
