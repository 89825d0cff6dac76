// Package facebook verifies Facebook access tokens for federated login.
package facebook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"localbite/internal/domain/entity"
	"localbite/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	defaultGraphURL = "https://graph.facebook.com"
	profileFields   = "id,first_name,last_name,email"
	requestTimeout  = 10 * time.Second
)

// Verifier implements service.IdentityVerifier for Facebook access tokens.
// Unlike Google's self-contained ID tokens, a Facebook credential is an
// opaque access token that must be resolved against the Graph API.
type Verifier struct {
	graphURL string
	client   *http.Client
	logger   *slog.Logger
}

// NewVerifier creates the Facebook identity verifier.
func NewVerifier(logger *slog.Logger) service.IdentityVerifier {
	return &Verifier{
		graphURL: defaultGraphURL,
		client:   &http.Client{Timeout: requestTimeout},
		logger:   logger,
	}
}

// Provider returns the provider this verifier handles.
func (v *Verifier) Provider() entity.AuthProvider {
	return entity.ProviderFacebook
}

// Verify resolves the access token into the caller's profile attributes
// (id, first_name, last_name, email). A token Facebook rejects yields an error.
func (v *Verifier) Verify(ctx context.Context, credential string) (map[string]any, error) {
	endpoint := v.graphURL + "/me?fields=" + profileFields + "&access_token=" + url.QueryEscape(credential)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build Graph API request")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.WarnContext(ctx, "Graph API request failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "Graph API request failed")
	}
	defer resp.Body.Close()

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "failed to decode Graph API response")
	}

	if resp.StatusCode != http.StatusOK {
		v.logger.WarnContext(ctx, "Facebook rejected access token", slog.Int("status", resp.StatusCode))

		return nil, errors.Errorf("Graph API returned status %d", resp.StatusCode)
	}

	if _, ok := profile["error"]; ok {
		return nil, errors.New("Graph API reported an invalid token")
	}

	if id, ok := profile["id"].(string); !ok || id == "" {
		return nil, errors.New("Graph API response missing profile id")
	}

	return profile, nil
}
