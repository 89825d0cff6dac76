package handler

import (
	"log/slog"
	"net/http"

	"localbite/internal/delivery/http/middleware"
	"localbite/internal/delivery/http/response"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PasswordHandler exposes the password policy engine over HTTP.
type PasswordHandler struct {
	uc     usecase.PasswordUsecase
	logger *slog.Logger
}

// NewPasswordHandler is the constructor for PasswordHandler, injected by Fx.
func NewPasswordHandler(uc usecase.PasswordUsecase, logger *slog.Logger) *PasswordHandler {
	return &PasswordHandler{uc: uc, logger: logger}
}

// CheckStrength evaluates a candidate password without persisting anything.
func (h *PasswordHandler) CheckStrength(c echo.Context) error {
	var input *usecase.PasswordCheckInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "VALIDATION_FAILED", "Invalid password check input")
	}
	if err := c.Validate(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	output, err := h.uc.CheckStrength(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Password evaluated")
}

// Requirements returns the active password policy so clients can render
// live validation hints.
func (h *PasswordHandler) Requirements(c echo.Context) error {
	output, err := h.uc.Requirements(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Password policy retrieved")
}

// ExpiryStatus reports how close the authenticated user's password is to
// expiry.
func (h *PasswordHandler) ExpiryStatus(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	output, err := h.uc.ExpiryStatus(c.Request().Context(), user.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Password expiry status retrieved")
}
