package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/kinfolkhq/kinfolk/internal/family/http"
	"github.com/kinfolkhq/kinfolk/internal/family/notify"
	"github.com/kinfolkhq/kinfolk/internal/family/service"
	"github.com/kinfolkhq/kinfolk/internal/family/store"
	"github.com/kinfolkhq/kinfolk/internal/family/store/drivers/sqlite"
	"github.com/kinfolkhq/kinfolk/pkg/cryptox"
	"github.com/kinfolkhq/kinfolk/pkg/jwtx"
	"github.com/kinfolkhq/kinfolk/pkg/slogx"
)

// BuildVersion is stamped by release builds via -ldflags. The default marks a
// locally built binary.
var BuildVersion = "v0.1.0-dev"

// Application owns every long-lived dependency of the family service and
// wires them together in dependency order: database, signing keys, notifiers,
// services, HTTP.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         store.Store
	keyManager *jwtx.KeyManager
	events     *notify.EventPublisher // nil unless AMQP is configured
	notifier   *notify.Dispatcher

	sessionService    *service.SessionService
	invitationService *service.InvitationService
	onboardingService *service.OnboardingService
	sweeperService    *service.SweeperService

	server *http.Server
	router *httpapi.Router
}

func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "family-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	// Database comes up first; persistent key storage needs it.
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitFamilyKeys(context.Background(), app.cfg, app.db, app.logger)
	if err != nil {
		return nil, fmt.Errorf("init signing keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initNotify(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the sweeper and the HTTP server, then blocks until the server
// fails or a termination signal arrives.
func (app *Application) Run() error {
	if err := app.sweeperService.Start(); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	app.logger.Info("family service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains the HTTP server within the configured grace period, then
// tears the rest down in reverse start order.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down family service")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeperService.Stop()

	if app.events != nil {
		if err := app.events.Close(); err != nil {
			app.logger.Error("error closing event publisher", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("family service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	app.logger.Info("database ready", "file", app.cfg.DatabaseFile)
	return nil
}

// initNotify builds the notification dispatcher from the configured targets.
// The structured log is always a target; SMTP and AMQP join it when
// configured. A configured but unreachable broker fails startup rather than
// silently dropping events.
func (app *Application) initNotify() error {
	targets := []notify.Notifier{
		&notify.LogNotifier{Logger: app.logger},
	}

	if app.cfg.MailerEnabled() {
		targets = append(targets, &notify.Mailer{
			Host:          app.cfg.SMTPHost,
			Port:          app.cfg.SMTPPort,
			Username:      app.cfg.SMTPUsername,
			Password:      app.cfg.SMTPPassword,
			From:          app.cfg.SMTPFrom,
			InviteBaseURL: app.cfg.InviteBaseURL,
		})
		app.logger.Info("smtp notifier enabled", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	}

	if app.cfg.EventsEnabled() {
		events, err := notify.NewEventPublisher(app.cfg.AMQPURL, app.cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		app.events = events
		targets = append(targets, events)
		app.logger.Info("amqp event publisher enabled", "queue", app.cfg.AMQPQueue)
	}

	app.notifier = &notify.Dispatcher{
		Targets: targets,
		Logger:  app.logger,
	}
	return nil
}

func (app *Application) initServices() {
	app.sessionService = &service.SessionService{
		KeyManager: app.keyManager,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
	}

	app.invitationService = &service.InvitationService{
		Store:  app.db,
		Notify: app.notifier,
		TTL:    app.cfg.InviteTTL,
	}

	app.onboardingService = &service.OnboardingService{
		Store:       app.db,
		Invitations: app.invitationService,
		Sessions:    app.sessionService,
		Notify:      app.notifier,
		CodeTTL:     app.cfg.CodeTTL,
	}

	app.sweeperService = service.NewSweeperService(
		app.db,
		app.logger,
		app.cfg.SweepSchedule,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.InvitationService = app.invitationService
	router.OnboardingService = app.onboardingService
	router.ExposeDebugCodes = app.cfg.Env == "test"
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
