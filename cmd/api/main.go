package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-roster-api/internal/config"
	"github.com/noah-isme/gema-roster-api/internal/database"
	"github.com/noah-isme/gema-roster-api/internal/handler"
	"github.com/noah-isme/gema-roster-api/internal/middleware"
	"github.com/noah-isme/gema-roster-api/internal/repository"
	"github.com/noah-isme/gema-roster-api/internal/router"
	"github.com/noah-isme/gema-roster-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.RequireAuth(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		stop()
		logger.Fatal().Err(err).Msg("roster api stopped")
	}
}

// run starts the API and blocks until ctx is cancelled or the server fails.
// Resources opened here are released before it returns.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	storage, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	defer storage.Close()

	var activityService service.ActivityService
	if storage.DB != nil {
		activityService = service.NewActivityService(repository.NewActivityLogRepository(storage.DB), logger)
	}

	var events service.RosterEventPublisher
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName), nats.MaxReconnects(-1))
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, roster events disabled")
		} else {
			defer conn.Drain()
			events = service.NewNATSRosterPublisher(conn, cfg.EventChannel)
		}
	}

	rosterOptions := service.RosterOptions{Key: cfg.RosterKey, Events: events}
	if activityService != nil {
		rosterOptions.Activity = activityService
	}
	rosterService := service.NewRosterService(storage.KeyValue, rosterOptions, logger)

	loadCtx, cancelLoad := context.WithTimeout(ctx, 10*time.Second)
	err = rosterService.Load(loadCtx)
	cancelLoad()
	if err != nil {
		if !errors.Is(err, service.ErrRosterCorrupt) {
			return fmt.Errorf("load roster: %w", err)
		}
		logger.Warn().Err(err).Msg("continuing with an empty roster")
	}

	authService := service.NewAuthService(storage.KeyValue, service.AuthConfig{
		Username:   cfg.TeacherUsername,
		Password:   cfg.TeacherPassword,
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.JWTTTL,
		SessionKey: cfg.SessionKey,
	}, logger)
	exportService := service.NewExportService(rosterService, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	deps := router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, validate, logger),
		RosterHandler:     handler.NewRosterHandler(rosterService, exportService, validate, logger),
		HealthPinger:      storage,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		SessionMiddleware: middleware.RequireSession(authService),
		LoginRateLimiter:  middleware.RateLimit("login", cfg.LoginRateLimit, cfg.LoginRateWindow),
	}
	if activityService != nil {
		deps.ActivityHandler = handler.NewActivityHandler(activityService, logger)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    8 << 20,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, deps)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Str("storage", cfg.StorageDriver).Msg("roster api listening")
		serverErr <- app.Listen(cfg.HTTPAddress())
	}()

	return waitForShutdown(ctx, app, logger, serverErr)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}
	return logger
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger, serverErr <-chan error) error {
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}
