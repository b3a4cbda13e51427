package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dokubox/internal/category"
	"dokubox/internal/config"
	"dokubox/internal/database"
	"dokubox/internal/database/migration"
	handlers "dokubox/internal/http/handler"
	"dokubox/internal/http/middleware"
	"dokubox/internal/logger"
	"dokubox/internal/otel"
	"dokubox/internal/repository/postgres"
	"dokubox/internal/service"
	"dokubox/internal/session"
	"dokubox/internal/storage"
	"dokubox/internal/token"
	"dokubox/internal/vault"
)

// @title Dokubox API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a default one.
		logger.New("info").Fatal("config_load_failed", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal("tracing_init_failed", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("database_connect_failed", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.Fatal("database_migration_failed", zap.Error(err))
	}

	blobs, err := storage.NewMinIO(ctx, cfg.MinIO, log)
	if err != nil {
		log.Fatal("storage_init_failed", zap.Error(err))
	}

	maxUpload, err := cfg.Storage.MaxUploadBytes()
	if err != nil {
		log.Fatal("config_invalid", zap.Error(err))
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("config_invalid", zap.String("reason", "AUTH_JWT_SECRET is required"))
	}

	uploads, err := service.NewUploadMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("metrics_init_failed", zap.Error(err))
	}

	deps := vault.Deps{
		Accounts: postgres.NewAccountPostgres(db, token.New(cfg.Auth.JWTSecret), postgres.AccountPolicy{
			SessionTTL:        cfg.Auth.SessionTTL.Std(),
			MaxFailedAttempts: cfg.Auth.MaxFailedAttempts,
			LockoutDuration:   cfg.Auth.LockoutDuration.Std(),
		}),
		Documents: postgres.NewDocumentPostgres(db),
		Attachments: service.NewAttachmentService(blobs, service.AttachmentConfig{
			PublicEndpoint: cfg.Storage.PublicEndpoint,
			Project:        cfg.Storage.Project,
			MaxBytes:       maxUpload,
		}, uploads, log),
		Categories: category.Default(),
		Retry:      session.RetryPolicy{Backoff: cfg.Auth.RetryBackoff.Std()},
		Blobs:      service.BlobPolicy{PurgeReplaced: cfg.Storage.PurgeReplaced},
		Log:        log,
	}
	open := func(ctx context.Context, token string) (vault.API, error) {
		client, err := vault.Open(ctx, deps, token)
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	bodyLimit := fiber.DefaultBodyLimit
	if maxUpload > 0 {
		// Room for the other form fields next to the image.
		bodyLimit = int(maxUpload) + 1<<20
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log),
		BodyLimit:    bodyLimit,
		Immutable:    true,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:             db,
		Open:           open,
		Blobs:          blobs,
		PresignExpiry:  time.Duration(cfg.Storage.PresignExpirySec) * time.Second,
		MaxUploadBytes: maxUpload,
	})

	app.Get("/swagger/*", handlers.Swagger(cfg.AppHost))

	go func() {
		<-ctx.Done()
		log.Info("server_shutdown", zap.String("reason", "signal"))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("server_shutdown_failed", zap.Error(err))
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server_start_failed", zap.Error(err))
	}
}
