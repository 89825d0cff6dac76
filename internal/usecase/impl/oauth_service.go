package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	deliverycontext "localbite/internal/delivery/context"
	"localbite/internal/domain/entity"
	domainerrors "localbite/internal/domain/errors"
	"localbite/internal/domain/repository"
	"localbite/internal/domain/service"
	"localbite/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// oauthProfile is the provider-independent projection of a federated identity.
type oauthProfile struct {
	SubjectID string
	Email     string
	FirstName string
	LastName  string
	Picture   string
}

// profileExtractor maps a provider's raw attribute map onto oauthProfile.
type profileExtractor func(attrs map[string]any) (*oauthProfile, error)

// profileExtractors is the dispatch table keyed by provider. Adding a
// provider means adding a verifier and one entry here.
var profileExtractors = map[entity.AuthProvider]profileExtractor{
	entity.ProviderGoogle:   extractGoogleProfile,
	entity.ProviderFacebook: extractFacebookProfile,
}

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	txManager  repository.TransactionManager
	userRepo   repository.UserRepository
	tokenCodec service.TokenCodec
	verifiers  map[entity.AuthProvider]service.IdentityVerifier
	logger     *slog.Logger
}

// OAuthServiceParams holds dependencies for oauthService, injected by Fx.
type OAuthServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	UserRepo   repository.UserRepository
	TokenCodec service.TokenCodec
	Verifiers  []service.IdentityVerifier `group:"identity_verifiers"`
	Logger     *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(params OAuthServiceParams) usecase.OAuthUsecase {
	verifiers := make(map[entity.AuthProvider]service.IdentityVerifier, len(params.Verifiers))
	for _, verifier := range params.Verifiers {
		verifiers[verifier.Provider()] = verifier
	}

	return &oauthService{
		txManager:  params.TxManager,
		userRepo:   params.UserRepo,
		tokenCodec: params.TokenCodec,
		verifiers:  verifiers,
		logger:     params.Logger,
	}
}

func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// HandleCallback verifies the provider credential, links or creates the
// local account, and issues tokens.
func (srv *oauthService) HandleCallback(ctx context.Context, input *usecase.OAuthCallbackInput) (*usecase.LoginOutput, error) {
	provider, ok := entity.ParseAuthProvider(input.Provider)
	if !ok || provider == entity.ProviderLocal {
		return nil, domainerrors.ErrOAuthProviderUnsupported.WithDetails(input.Provider)
	}

	verifier, ok := srv.verifiers[provider]
	if !ok {
		return nil, domainerrors.ErrOAuthProviderUnsupported.WithDetails(provider.String())
	}

	extract, ok := profileExtractors[provider]
	if !ok {
		return nil, domainerrors.ErrOAuthProviderUnsupported.WithDetails(provider.String())
	}

	attrs, err := verifier.Verify(ctx, input.Credential)
	if err != nil {
		srv.log(ctx).Warn("Federated credential verification failed", slog.String("provider", provider.String()), slog.Any("error", err))

		return nil, domainerrors.ErrOAuthFailed.WrapMessage("credential verification failed")
	}

	profile, err := extract(attrs)
	if err != nil {
		return nil, domainerrors.ErrOAuthFailed.WrapMessage(err.Error())
	}

	var user *entity.User
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		user, err = srv.linkOrCreate(ctx, repoFactory, provider, profile)

		return err
	})
	if err != nil {
		srv.log(ctx).Error("Failed to execute federated login transaction", slog.String("provider", provider.String()), slog.Any("error", err))

		return nil, err
	}

	accessToken, err := srv.tokenCodec.GenerateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate access token")
	}
	refreshToken, err := srv.tokenCodec.GenerateRefreshToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	srv.log(ctx).Info("Federated login completed", slog.Any("userID", user.ID), slog.String("provider", provider.String()))

	return &usecase.LoginOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(srv.tokenCodec.AccessTokenTTL().Seconds()),
		User:         usecase.NewUserSummary(user),
	}, nil
}

// linkOrCreate updates the existing account for the email, or creates a
// fresh BUYER account. Either way the provider vouches for the address, so
// emailVerified is forced true.
func (srv *oauthService) linkOrCreate(ctx context.Context, repoFactory repository.RepositoryFactory, provider entity.AuthProvider, profile *oauthProfile) (*entity.User, error) {
	userRepo := repoFactory.UserRepo()

	user, err := userRepo.FindByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to load account")
	}

	if err == nil {
		dirty := false
		if user.Provider != provider || user.ProviderID != profile.SubjectID {
			user.Provider = provider
			user.ProviderID = profile.SubjectID
			dirty = true
		}
		if !user.EmailVerified {
			user.EmailVerified = true
			dirty = true
		}
		if profile.FirstName != "" && user.FirstName != profile.FirstName {
			user.FirstName = profile.FirstName
			dirty = true
		}
		if profile.LastName != "" && user.LastName != profile.LastName {
			user.LastName = profile.LastName
			dirty = true
		}

		if dirty {
			if err := userRepo.Update(ctx, user); err != nil {
				return nil, err
			}
		}

		return user, nil
	}

	role, err := ensureRoleIn(ctx, repoFactory.RoleRepo(), entity.RoleBuyer)
	if err != nil {
		return nil, err
	}

	user = &entity.User{
		Email:         profile.Email,
		FirstName:     profile.FirstName,
		LastName:      profile.LastName,
		EmailVerified: true,
		Enabled:       true,
		Provider:      provider,
		ProviderID:    profile.SubjectID,
		Roles:         []entity.Role{*role},
	}

	now := time.Now()
	user.LastLogin = &now

	if err := userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ensureRoleIn loads the role, creating it lazily on first use.
func ensureRoleIn(ctx context.Context, roleRepo repository.RoleRepository, name entity.RoleName) (*entity.Role, error) {
	role, err := roleRepo.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, repository.ErrRoleNotFound) {
		return nil, errors.Wrap(err, "failed to load role")
	}

	role = &entity.Role{Name: name, Description: name.String() + " role"}
	if err := roleRepo.Create(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

func extractGoogleProfile(attrs map[string]any) (*oauthProfile, error) {
	email, _ := attrs["email"].(string)
	if email == "" {
		return nil, errors.New("provider profile is missing an email address")
	}

	subject, _ := attrs["sub"].(string)
	firstName, _ := attrs["given_name"].(string)
	lastName, _ := attrs["family_name"].(string)
	picture, _ := attrs["picture"].(string)

	return &oauthProfile{
		SubjectID: subject,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Picture:   picture,
	}, nil
}

func extractFacebookProfile(attrs map[string]any) (*oauthProfile, error) {
	email, _ := attrs["email"].(string)
	if email == "" {
		return nil, errors.New("provider profile is missing an email address")
	}

	subject, _ := attrs["id"].(string)
	firstName, _ := attrs["first_name"].(string)
	lastName, _ := attrs["last_name"].(string)

	picture := ""
	if subject != "" {
		picture = fmt.Sprintf("https://graph.facebook.com/%s/picture", subject)
	}

	return &oauthProfile{
		SubjectID: subject,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Picture:   picture,
	}, nil
}
