package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/dochub-service/internal/ai"
	httptransport "github.com/spec-kit/dochub-service/internal/api/http"
	"github.com/spec-kit/dochub-service/internal/api/http/handlers"
	"github.com/spec-kit/dochub-service/internal/auth"
	"github.com/spec-kit/dochub-service/internal/config"
	"github.com/spec-kit/dochub-service/internal/email"
	"github.com/spec-kit/dochub-service/internal/events"
	"github.com/spec-kit/dochub-service/internal/observability"
	"github.com/spec-kit/dochub-service/internal/persistence"
	"github.com/spec-kit/dochub-service/internal/repository"
	"github.com/spec-kit/dochub-service/internal/service"
	"github.com/spec-kit/dochub-service/internal/storage"
	"github.com/spec-kit/dochub-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	departmentRepo := repository.NewDepartmentRepository(pool)

	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	sessions := auth.NewRedisRevocationStore(rdb.Client)
	issuer := auth.NewIssuer(codec, sessions, auth.TokenTTLs{
		Login:          cfg.Auth.LoginTokenTTL(),
		ForgotPassword: cfg.Auth.ForgotPasswordTTL(),
		Invitation:     cfg.Auth.InvitationTTL(),
	})
	authenticator := auth.NewAuthenticator(codec, sessions)
	authMiddleware := auth.NewMiddleware(authenticator, logger)

	dispatcher := events.NewInMemoryDispatcher()
	mailer := email.NewBrevoMailer(cfg.Email, logger)
	notificationService := service.NewNotificationService(dispatcher, mailer, cfg.Frontend, logger)
	worker.StartNotificationWorker(notificationService)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		Issuer:         issuer,
		Authenticator:  authenticator,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
	}, logger)
	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		Issuer:         issuer,
		Authenticator:  authenticator,
		Sessions:       sessions,
		Dispatcher:     dispatcher,
	}, logger)

	// Integration points for the document and prompt route groups, which are
	// mounted outside this service.
	var objectStore storage.ObjectStore
	if cfg.Storage.Bucket != "" {
		objectStore, err = storage.NewS3Store(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("object storage unavailable", zap.Error(err))
		}
	}
	var completions ai.CompletionClient
	if cfg.AI.APIKey != "" {
		completions = ai.NewOpenAIClient(cfg.AI)
	}

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb)
	authHandler := handlers.NewAuthHandler(authService)
	usersHandler := handlers.NewUsersHandler(userService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Auth:           authHandler,
		Users:          usersHandler,
		AuthMiddleware: authMiddleware,
		ObjectStore:    objectStore,
		Completions:    completions,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
