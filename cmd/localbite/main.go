package main

import (
	"context"
	"log/slog"
	"os"

	"localbite/config"
	"localbite/internal/delivery"
	"localbite/internal/delivery/http"
	"localbite/internal/delivery/http/middleware"
	"localbite/internal/delivery/http/router/handler"
	"localbite/internal/infra/auth"
	"localbite/internal/infra/auth/facebook"
	"localbite/internal/infra/auth/google"
	logs "localbite/internal/infra/log"
	"localbite/internal/infra/mail"
	"localbite/internal/infra/persistence/postgres"
	"localbite/internal/infra/ratelimit"
	"localbite/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRoleRepository,
			postgres.NewPasswordHistoryRepository,
			postgres.NewVerificationTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTCodec,
			ratelimit.New,
			mail.NewLogDispatcher,
			impl.NewPasswordPolicyService,
			fx.Annotate(
				google.NewVerifier,
				fx.ResultTags(`group:"identity_verifiers"`),
			),
			fx.Annotate(
				facebook.NewVerifier,
				fx.ResultTags(`group:"identity_verifiers"`),
			),
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewPasswordService,
			impl.NewOAuthService,
			impl.NewVerificationService,
			impl.NewAdminService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewRateLimitMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewPasswordHandler,
			handler.NewVerificationHandler,
			handler.NewAdminHandler,
			handler.NewOAuthHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
