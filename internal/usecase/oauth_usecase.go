package usecase

import "context"

// OAuthCallbackInput carries the provider's credential from the callback.
type OAuthCallbackInput struct {
	Provider   string `json:"provider" validate:"required"`
	Credential string `json:"credential" validate:"required"`
}

// OAuthUsecase handles federated login callbacks: verifying the provider
// credential, linking or creating the local account, and issuing tokens.
type OAuthUsecase interface {
	HandleCallback(ctx context.Context, input *OAuthCallbackInput) (*LoginOutput, error)
}
