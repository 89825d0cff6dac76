// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"localbite/config"
	"localbite/internal/delivery/http/middleware"
	"localbite/internal/delivery/http/router/handler"
	"localbite/internal/domain/entity"
	"localbite/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// RouterParams holds every handler and middleware the router wires up.
type RouterParams struct {
	fx.In

	Config *config.Config

	AuthHandler         *handler.AuthHandler
	PasswordHandler     *handler.PasswordHandler
	VerificationHandler *handler.VerificationHandler
	AdminHandler        *handler.AdminHandler
	OAuthHandler        *handler.OAuthHandler

	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	params RouterParams
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{params: params}
}

// RegisterRoutes sets up all the API routes for the application.
// Every route carries the GLOBAL rate-limit class; sensitive routes add a
// stricter class on top.
func (r *router) RegisterRoutes(e *echo.Echo) {
	authMW := r.params.AuthMiddleware
	rateMW := r.params.RateLimitMiddleware

	api := e.Group("/api/auth", rateMW.Limit(service.RateLimitGlobal))

	api.GET("/health", handler.HealthCheck)

	api.POST("/register", r.params.AuthHandler.Register, rateMW.Limit(service.RateLimitRegister))
	api.POST("/login", r.params.AuthHandler.Login, rateMW.Limit(service.RateLimitLogin))
	api.GET("/me", r.params.AuthHandler.Me, authMW.Authenticate)

	api.GET("/verify-email", r.params.VerificationHandler.VerifyEmail,
		rateMW.Limit(service.RateLimitEmailVerification))
	api.POST("/verify-email", r.params.VerificationHandler.VerifyEmail,
		rateMW.Limit(service.RateLimitEmailVerification))
	api.POST("/resend-verification", r.params.VerificationHandler.ResendVerification,
		rateMW.Limit(service.RateLimitEmailVerification))
	api.GET("/verification-status", r.params.VerificationHandler.Status)

	api.POST("/check-password-strength", r.params.PasswordHandler.CheckStrength)
	api.GET("/password-policy", r.params.PasswordHandler.Requirements)
	api.GET("/password-expiry-status", r.params.PasswordHandler.ExpiryStatus, authMW.Authenticate)

	api.POST("/oauth/callback/:provider", r.params.OAuthHandler.Callback,
		rateMW.Limit(service.RateLimitLogin))

	// Admin routes require authentication, the ADMIN role, and an extra
	// per-operator rate limit keyed by user id.
	adminGroup := api.Group("/admin",
		authMW.Authenticate,
		authMW.RequireRole(entity.RoleAdmin),
		rateMW.LimitByUser(service.RateLimitAdmin),
	)
	adminGroup.POST("/lock-account", r.params.AdminHandler.LockAccount)
	adminGroup.POST("/unlock-account", r.params.AdminHandler.UnlockAccount)
	adminGroup.POST("/enable-account", r.params.AdminHandler.EnableAccount)
	adminGroup.POST("/disable-account", r.params.AdminHandler.DisableAccount)
	adminGroup.POST("/reset-failed-attempts", r.params.AdminHandler.ResetFailedAttempts)
	adminGroup.GET("/account-status", r.params.AdminHandler.AccountStatus)
}

// RegisterTestRoutes adds endpoints that only exist for testing and demos.
// They are gated behind the testRoutes config flag and never registered in
// production.
func (r *router) RegisterTestRoutes(e *echo.Echo) {
	if r.params.Config.TestRoutes == nil || !r.params.Config.TestRoutes.Enabled {
		return
	}

	rateMW := r.params.RateLimitMiddleware

	api := e.Group("/api/auth", rateMW.Limit(service.RateLimitGlobal))
	api.POST("/manual-verify", r.params.VerificationHandler.ManualVerify,
		rateMW.Limit(service.RateLimitEmailVerification))
}
