// Package app wires the console API together: config, store, artifact
// storage, services, and the HTTP server.
package app

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/artifacts"
	"github.com/aiforge-cloud/aiforge/internal/config"
	httpapi "github.com/aiforge-cloud/aiforge/internal/console/http"
	"github.com/aiforge-cloud/aiforge/internal/mailer"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/internal/store/sqlite"
	"github.com/aiforge-cloud/aiforge/pkg/jwtx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the console API with all its dependencies.
type Application struct {
	cfg    config.Config
	port   int
	logger *slog.Logger

	db        store.Store
	mail      mailer.Mailer
	artifacts artifacts.Storage

	teamService       *service.TeamService
	membershipService *service.MembershipService
	invitationService *service.InvitationService
	projectService    *service.ProjectService
	endpointService   *service.EndpointService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg config.Config) (*Application, error) {
	app := &Application{
		cfg:  cfg,
		port: config.Port("CONSOLE_PORT", 8080),
		logger: slogx.New(slogx.Config{
			Service: "console-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	// The console only verifies tokens; the auth service signs them. Both
	// read the same key file.
	key, err := jwtx.LoadOrGenerateKey(cfg.JWTKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	verifier := jwtx.NewVerifier(key.Public().(ed25519.PublicKey), cfg.Issuer)

	if err := app.initArtifacts(context.Background()); err != nil {
		return nil, err
	}
	app.initMailer()
	app.initServices()
	app.initHTTP(verifier)

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("console api starting", "port", app.port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down console api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("console api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initArtifacts(ctx context.Context) error {
	if app.cfg.S3Bucket == "" {
		app.artifacts = artifacts.NewMemoryStorage()
		app.logger.Warn("no S3 bucket configured, artifacts will not survive restarts")
		return nil
	}

	st, err := artifacts.NewS3Storage(ctx, artifacts.S3Config{
		Bucket:   app.cfg.S3Bucket,
		Region:   app.cfg.S3Region,
		Endpoint: app.cfg.S3Endpoint,
		Prefix:   app.cfg.S3Prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize artifact storage: %w", err)
	}
	app.artifacts = st
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPHost == "" {
		app.mail = mailer.NewLogMailer(app.logger)
		app.logger.Info("no SMTP host configured, logging emails instead")
		return
	}
	app.mail = mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
		BaseURL:  app.cfg.BaseURL,
	})
}

func (app *Application) initServices() {
	app.teamService = &service.TeamService{Store: app.db}
	app.membershipService = &service.MembershipService{Store: app.db}
	app.invitationService = &service.InvitationService{
		Store:  app.db,
		Mailer: app.mail,
	}
	app.projectService = &service.ProjectService{Store: app.db}
	app.endpointService = &service.EndpointService{
		Store:     app.db,
		Artifacts: app.artifacts,
	}
}

func (app *Application) initHTTP(verifier *jwtx.Verifier) {
	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.logger)

	router.TeamService = app.teamService
	router.MembershipService = app.membershipService
	router.InvitationService = app.invitationService
	router.ProjectService = app.projectService
	router.EndpointService = app.endpointService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
