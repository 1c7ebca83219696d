package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/api"
	"github.com/alertframe/alertframe/internal/config"
	"github.com/alertframe/alertframe/internal/database"
	"github.com/alertframe/alertframe/internal/extract"
	"github.com/alertframe/alertframe/internal/extract/kernel"
	"github.com/alertframe/alertframe/internal/extract/mock"
	"github.com/alertframe/alertframe/internal/extract/static"
	"github.com/alertframe/alertframe/internal/notify"
	"github.com/alertframe/alertframe/internal/scheduler"
	"github.com/alertframe/alertframe/internal/secrets"
	"github.com/alertframe/alertframe/internal/user"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	validation := config.Validate(cfg)
	if !validation.OK() {
		return fmt.Errorf("%s", validation.Error())
	}
	for _, w := range validation.Warnings {
		logger.Warn("configuration warning", slog.String("field", w.Name), slog.String("message", w.Message))
	}

	logger.Info("starting AlertFrame API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Database
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("database migrations applied")

	box, err := secrets.NewBox(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize secret store: %w", err)
	}

	userRepo := user.NewRepository(pool)
	alertRepo := alert.NewRepository(pool)

	extractor, err := newExtractor(cfg, userRepo, box)
	if err != nil {
		return fmt.Errorf("failed to initialize extractor: %w", err)
	}

	dispatcher := newDispatcher(cfg, userRepo, alertRepo, box, logger)
	sweeper := scheduler.NewSweeper(alertRepo, extractor, dispatcher, logger)

	if cfg.SweepInterval > 0 {
		worker := scheduler.NewWorker(sweeper, logger, cfg.SweepInterval)
		go worker.Start(ctx)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		AlertRepo:  alertRepo,
		UserRepo:   userRepo,
		Extractor:  extractor,
		Sweeper:    sweeper,
		Confirmer:  dispatcher,
		Box:        box,
		CronSecret: cfg.CronSecret,
		DB:         pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, "alertframe")
	if err != nil {
		return err
	}
	defer func() { _ = migrator.Close() }()

	return migrator.Up()
}

// newExtractor picks the page extraction backend. The kernel provider uses
// each owner's stored API key; static fetches pages without a browser and
// works for server-rendered sites; mock is for local development.
func newExtractor(cfg *config.Config, userRepo *user.Repository, box *secrets.Box) (extract.Extractor, error) {
	switch cfg.ExtractorProvider {
	case "kernel":
		client := kernel.NewClient(kernel.Config{
			BaseURL: cfg.KernelAPIURL,
			Timeout: cfg.ExtractTimeout,
		})
		return kernel.NewProvider(client, user.NewCredentials(userRepo, box)), nil
	case "static":
		return static.NewProvider(cfg.ExtractTimeout), nil
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider %q", cfg.ExtractorProvider)
	}
}

func newDispatcher(cfg *config.Config, userRepo *user.Repository, alertRepo *alert.Repository, box *secrets.Box, logger *slog.Logger) *notify.Dispatcher {
	var gmail, resend notify.MessageSender
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		gmail = notify.NewGmailSender(userRepo, box, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.AppURL+"/auth/google/callback")
	}
	if cfg.ResendAPIKey != "" {
		resend = notify.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	}

	return notify.NewDispatcher(notify.DispatcherConfig{
		Marker: alertRepo,
		Owners: userRepo,
		Gmail:  gmail,
		Resend: resend,
		AppURL: cfg.AppURL,
		Logger: logger,
	})
}
