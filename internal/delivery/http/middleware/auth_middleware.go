package middleware

import (
	"slices"
	"strings"

	"localbite/internal/delivery/http/response"
	"localbite/internal/domain/entity"
	"localbite/internal/domain/repository"
	"localbite/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// Context keys set by Authenticate for downstream handlers.
const (
	ContextKeyUser  = "user"
	ContextKeyRoles = "roles"
)

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	codec    service.TokenCodec
	userRepo repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(codec service.TokenCodec, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, userRepo: userRepo}
}

// Authenticate validates the bearer token against the account it was issued
// to and stashes the loaded user on the context. The token subject is the
// account email; a token for a deleted or ineligible account is rejected
// even when its signature is still valid.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid token format, must be Bearer token")
		}

		subject, err := m.codec.Subject(tokenString)
		if err != nil {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		user, err := m.userRepo.FindByEmail(c.Request().Context(), subject)
		if err != nil {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		if !m.codec.Validate(tokenString, user) {
			return response.Unauthorized(c, "UNAUTHORIZED", "Invalid or expired token")
		}

		if !user.EligibleForLogin() {
			return response.Unauthorized(c, "UNAUTHORIZED", "Account is not eligible for access")
		}

		roles := make([]string, 0, len(user.Roles))
		for _, role := range user.Roles {
			roles = append(roles, role.Name.String())
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyRoles, roles)

		return next(c)
	}
}

// RequireRole is a middleware factory that checks if the user has a specific
// role. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.RoleName) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get(ContextKeyRoles).([]string)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			if !slices.Contains(roles, requiredRole.String()) {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: require '"+requiredRole.String()+"' role")
			}

			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user stashed by Authenticate.
func CurrentUser(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(ContextKeyUser).(*entity.User)

	return user, ok
}
