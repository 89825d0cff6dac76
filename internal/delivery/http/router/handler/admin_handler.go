package handler

import (
	"log/slog"
	"net/http"

	"localbite/internal/delivery/http/response"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// AdminHandler covers the operator actions on account security state.
type AdminHandler struct {
	uc     usecase.AdminUsecase
	logger *slog.Logger
}

// NewAdminHandler is the constructor for AdminHandler, injected by Fx.
func NewAdminHandler(uc usecase.AdminUsecase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger}
}

func (h *AdminHandler) bindAccountInput(c echo.Context) (*usecase.AdminAccountInput, error) {
	var input *usecase.AdminAccountInput
	if err := c.Bind(&input); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("invalid account input")
	}
	if err := c.Validate(input); err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return input, nil
}

// LockAccount locks an account against further logins.
func (h *AdminHandler) LockAccount(c echo.Context) error {
	input, err := h.bindAccountInput(c)
	if err != nil {
		return err
	}

	if err := h.uc.LockAccount(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	h.logger.Info("Account locked by administrator", slog.String("email", input.Email))

	return response.Success(c, http.StatusOK, nil, "Account locked")
}

// UnlockAccount unlocks an account and clears its failed-attempt counter.
func (h *AdminHandler) UnlockAccount(c echo.Context) error {
	input, err := h.bindAccountInput(c)
	if err != nil {
		return err
	}

	if err := h.uc.UnlockAccount(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	h.logger.Info("Account unlocked by administrator", slog.String("email", input.Email))

	return response.Success(c, http.StatusOK, nil, "Account unlocked")
}

// EnableAccount re-enables a disabled account.
func (h *AdminHandler) EnableAccount(c echo.Context) error {
	input, err := h.bindAccountInput(c)
	if err != nil {
		return err
	}

	if err := h.uc.EnableAccount(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account enabled")
}

// DisableAccount disables an account.
func (h *AdminHandler) DisableAccount(c echo.Context) error {
	input, err := h.bindAccountInput(c)
	if err != nil {
		return err
	}

	if err := h.uc.DisableAccount(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account disabled")
}

// ResetFailedAttempts zeroes the failed-login counter.
func (h *AdminHandler) ResetFailedAttempts(c echo.Context) error {
	input, err := h.bindAccountInput(c)
	if err != nil {
		return err
	}

	output, err := h.uc.ResetFailedAttempts(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output, "Failed login attempts reset")
}

// AccountStatus reports the administrative view of an account.
func (h *AdminHandler) AccountStatus(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return domainerrors.ErrValidationFailed.WithDetails("email query parameter is required")
	}

	status, err := h.uc.AccountStatus(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, status, "Account status retrieved")
}
