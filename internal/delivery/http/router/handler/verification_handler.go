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

// VerificationHandler manages the email confirmation endpoints.
type VerificationHandler struct {
	uc     usecase.VerificationUsecase
	logger *slog.Logger
}

// NewVerificationHandler is the constructor for VerificationHandler, injected by Fx.
func NewVerificationHandler(uc usecase.VerificationUsecase, logger *slog.Logger) *VerificationHandler {
	return &VerificationHandler{uc: uc, logger: logger}
}

// VerifyEmail redeems a verification token. The token arrives as a query
// parameter when the user clicks the mailed link, or in the body when a
// frontend relays it.
func (h *VerificationHandler) VerifyEmail(c echo.Context) error {
	input := &usecase.VerifyEmailInput{Token: c.QueryParam("token")}
	if input.Token == "" {
		if err := c.Bind(&input); err != nil {
			return response.BindingError(c, "VALIDATION_FAILED", "Invalid verification input")
		}
	}
	if err := c.Validate(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if err := h.uc.VerifyEmail(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Email verified successfully")
}

// ResendVerification issues and mails a fresh token. Unknown addresses get
// the same response as known ones.
func (h *VerificationHandler) ResendVerification(c echo.Context) error {
	var input *usecase.ResendVerificationInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "VALIDATION_FAILED", "Invalid resend input")
	}
	if err := c.Validate(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if err := h.uc.ResendVerification(c.Request().Context(), input); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "If the account exists, a verification email has been sent")
}

// Status reports the verification state for an email address.
func (h *VerificationHandler) Status(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return domainerrors.ErrValidationFailed.WithDetails("email query parameter is required")
	}

	status, err := h.uc.Status(c.Request().Context(), email)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, status, "Verification status retrieved")
}

// ManualVerify marks an account verified without a token. The route is only
// registered when test routes are enabled.
func (h *VerificationHandler) ManualVerify(c echo.Context) error {
	var input *usecase.ResendVerificationInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "VALIDATION_FAILED", "Invalid manual verification input")
	}
	if err := c.Validate(input); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	if err := h.uc.ManualVerify(c.Request().Context(), input.Email); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Email verified manually")
}
