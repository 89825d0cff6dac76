package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"localbite/config"
	"localbite/internal/delivery/http/response"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// OAuthHandler handles federated login callbacks.
type OAuthHandler struct {
	uc     usecase.OAuthUsecase
	cfg    *config.Config
	logger *slog.Logger
}

// NewOAuthHandler is the constructor for OAuthHandler, injected by Fx.
func NewOAuthHandler(uc usecase.OAuthUsecase, cfg *config.Config, logger *slog.Logger) *OAuthHandler {
	return &OAuthHandler{uc: uc, cfg: cfg, logger: logger}
}

// Callback verifies the provider credential and logs the user in, creating
// or linking the local account as needed. The provider comes from the path;
// the credential from the JSON body or, for form posts, the id_token field.
func (h *OAuthHandler) Callback(c echo.Context) error {
	input := &usecase.OAuthCallbackInput{Provider: c.Param("provider")}

	var body struct {
		Credential string `json:"credential"`
	}
	if err := c.Bind(&body); err == nil && body.Credential != "" {
		input.Credential = body.Credential
	} else if idToken := c.FormValue("id_token"); idToken != "" {
		input.Credential = idToken
	}

	if input.Credential == "" {
		return domainerrors.ErrValidationFailed.WithDetails("credential is required")
	}

	output, err := h.uc.HandleCallback(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	// When a frontend redirect URL is configured the tokens travel as query
	// parameters; otherwise the callback answers with JSON.
	if h.cfg.OAuth != nil && h.cfg.OAuth.RedirectURL != "" {
		query := url.Values{}
		query.Set("access_token", output.AccessToken)
		query.Set("refresh_token", output.RefreshToken)

		return c.Redirect(http.StatusFound, h.cfg.OAuth.RedirectURL+"?"+query.Encode())
	}

	return response.Success(c, http.StatusOK, output, "OAuth authentication successful")
}
