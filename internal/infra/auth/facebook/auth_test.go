package facebook

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"localbite/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(graphURL string) *Verifier {
	return &Verifier{
		graphURL: graphURL,
		client:   &http.Client{Timeout: time.Second},
		logger:   slog.New(slog.DiscardHandler),
	}
}

func TestVerifier_Provider(t *testing.T) {
	verifier := newTestVerifier(defaultGraphURL)
	assert.Equal(t, entity.ProviderFacebook, verifier.Provider())
}

func TestVerifier_Verify_ReturnsProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me", r.URL.Path)
		assert.Equal(t, "valid-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, profileFields, r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"fb-42","first_name":"Jordan","last_name":"Lee","email":"jordan@example.com"}`))
	}))
	defer server.Close()

	verifier := newTestVerifier(server.URL)

	profile, err := verifier.Verify(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, "fb-42", profile["id"])
	assert.Equal(t, "jordan@example.com", profile["email"])
}

func TestVerifier_Verify_RejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}))
	defer server.Close()

	verifier := newTestVerifier(server.URL)

	profile, err := verifier.Verify(context.Background(), "expired-token")
	assert.Nil(t, profile)
	assert.Error(t, err)
}

func TestVerifier_Verify_MissingProfileID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"first_name":"Jordan"}`))
	}))
	defer server.Close()

	verifier := newTestVerifier(server.URL)

	_, err := verifier.Verify(context.Background(), "odd-token")
	assert.Error(t, err)
}
