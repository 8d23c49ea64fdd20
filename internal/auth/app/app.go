// Package app wires the account security service together: config, store,
// crypto material, services, and the HTTP server.
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

	httpapi "github.com/aiforge-cloud/aiforge/internal/auth/http"
	"github.com/aiforge-cloud/aiforge/internal/config"
	"github.com/aiforge-cloud/aiforge/internal/mailer"
	"github.com/aiforge-cloud/aiforge/internal/service"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/internal/store/sqlite"
	"github.com/aiforge-cloud/aiforge/pkg/cryptox"
	"github.com/aiforge-cloud/aiforge/pkg/jwtx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    config.Config
	port   int
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	mail   mailer.Mailer

	userService         *service.UserService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg config.Config) (*Application, error) {
	app := &Application{
		cfg:  cfg,
		port: config.Port("AUTH_PORT", 8081),
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	key, err := jwtx.LoadOrGenerateKey(cfg.JWTKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	app.signer = jwtx.NewSigner(key, cfg.Issuer, cfg.SessionTTL)

	app.initMailer()
	app.initServices()
	app.initHTTP(jwtx.NewVerifier(key.Public().(ed25519.PublicKey), cfg.Issuer))

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.port, "version", BuildVersion)

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
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
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
	app.mfaService = &service.MFAService{
		Store:  app.db,
		Issuer: "AIForge",
	}
	app.userService = &service.UserService{
		Store:  app.db,
		Mailer: app.mail,
		Signer: app.signer,
		MFA:    app.mfaService,
	}
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP(verifier *jwtx.Verifier) {
	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.logger)

	router.UserService = app.userService
	router.MFAService = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
