package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/lifedash/privacy_service/internal/api/handlers"
	"github.com/lifedash/privacy_service/internal/api/routes"
	"github.com/lifedash/privacy_service/internal/domain/services/consent"
	"github.com/lifedash/privacy_service/internal/domain/services/datasubject"
	"github.com/lifedash/privacy_service/internal/domain/services/onboarding"
	"github.com/lifedash/privacy_service/internal/domain/services/privacy"
	"github.com/lifedash/privacy_service/internal/domain/services/profile"
	"github.com/lifedash/privacy_service/internal/infrastructure/adapters"
	"github.com/lifedash/privacy_service/internal/infrastructure/config"
	"github.com/lifedash/privacy_service/internal/infrastructure/database"
	"github.com/lifedash/privacy_service/internal/infrastructure/repositories"
	consent_expiry_worker "github.com/lifedash/privacy_service/internal/workers/consent_expiry"
	dsar_monitor_worker "github.com/lifedash/privacy_service/internal/workers/dsar_monitor"
	"github.com/lifedash/privacy_service/pkg/exporttoken"
	"github.com/lifedash/privacy_service/pkg/logger"
	"github.com/lifedash/privacy_service/pkg/metrics"
	"github.com/lifedash/privacy_service/pkg/tracing"
)

const version = "1.0.0"

// Application represents the main application
type Application struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *sqlx.DB
	redis  *redis.Client
	server *http.Server

	// Workers
	consentExpiryWorker *consent_expiry_worker.Worker
	dsarMonitorWorker   *dsar_monitor_worker.Worker

	// Tracing
	tracingShutdown func(context.Context) error
}

// NewApplication creates a new application instance
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes the application
func (app *Application) Initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.cfg = cfg

	log := logger.New(cfg.Logging.Level, cfg.Environment)
	app.log = log

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	tracingShutdown, err := tracing.InitTracer(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
	}, log.Zap())
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.tracingShutdown = tracingShutdown

	services, err := app.buildServices()
	if err != nil {
		return err
	}

	app.consentExpiryWorker = consent_expiry_worker.NewWorker(
		services.Consent, cfg.Workers.ConsentExpirySchedule, log.Zap())
	app.dsarMonitorWorker = dsar_monitor_worker.NewWorker(
		services.DataSubject, cfg.Workers.DSARMonitorSchedule, log.Zap())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	health := handlers.NewHealthHandler(db, version)
	router := routes.SetupRoutes(handlers.New(services, health, log.Zap()), log.Zap())

	app.server = &http.Server{
		Addr:           cfg.Server.Address(),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return nil
}

// buildServices wires repositories, adapters and domain services
func (app *Application) buildServices() (handlers.Services, error) {
	cfg := app.cfg
	zlog := app.log.Zap()

	consentRepo := repositories.NewConsentRepository(app.db)
	activityRepo := repositories.NewActivityRepository(app.db)
	settingsRepo := repositories.NewSettingsRepository(app.db)
	requestRepo := repositories.NewRequestRepository(app.db)
	profileRepo := repositories.NewProfileRepository(app.db)
	onboardingRepo := repositories.NewOnboardingRepository(app.db)

	var decisionCache consent.DecisionCache
	if cfg.Redis.Enabled {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		decisionCache = adapters.NewConsentDecisionCache(app.redis, cfg.Redis.DecisionTTL, zlog)
		app.log.Info("consent decision cache enabled", "address", cfg.Redis.Address)
	}

	consentService := consent.NewService(consentRepo, activityRepo, decisionCache, zlog)
	privacyService := privacy.NewService(settingsRepo, activityRepo, consentService, zlog)

	collector := adapters.NewStoreDataCollector(profileRepo, consentRepo, settingsRepo, activityRepo, zlog)
	deleter := adapters.NewStoreDataDeleter(consentRepo, settingsRepo, activityRepo, zlog)
	verifier := adapters.NewIdentityVerifier(nil, zlog)

	var notifier datasubject.Notifier
	if cfg.Email.Enabled {
		emailNotifier, err := adapters.NewEmailNotifier(adapters.EmailNotifierConfig{
			APIKey:      cfg.Email.APIKey,
			FromEmail:   cfg.Email.FromEmail,
			FromName:    cfg.Email.FromName,
			Environment: cfg.Environment,
		}, profileRepo, settingsRepo, zlog)
		if err != nil {
			return handlers.Services{}, fmt.Errorf("failed to create email notifier: %w", err)
		}
		notifier = emailNotifier
		consentService.SetExpiryNotifier(emailNotifier)
	}

	var tokens datasubject.TokenIssuer
	if cfg.Privacy.ExportTokenSecret != "" {
		issuer, err := exporttoken.NewIssuer(cfg.Privacy.ExportTokenSecret, cfg.Privacy.ExportTokenTTL)
		if err != nil {
			return handlers.Services{}, fmt.Errorf("failed to create export token issuer: %w", err)
		}
		tokens = issuer
	}

	dataSubjectService := datasubject.NewService(
		requestRepo, activityRepo, collector, deleter, verifier, notifier, tokens,
		datasubject.Config{
			DeleteActivityLogsOnDeletion: cfg.Privacy.DeleteActivityLogsOnDeletion,
			OverdueDaysLimit:             cfg.Privacy.DSARDeadlineDays,
		}, zlog)

	profileService := profile.NewService(profileRepo, activityRepo, zlog)
	onboardingService := onboarding.NewService(onboardingRepo, activityRepo, zlog)

	return handlers.Services{
		Consent:     consentService,
		Privacy:     privacyService,
		DataSubject: dataSubjectService,
		Profile:     profileService,
		Onboarding:  onboardingService,
	}, nil
}

// Start starts the HTTP server and background workers
func (app *Application) Start() error {
	if err := app.consentExpiryWorker.Start(); err != nil {
		return fmt.Errorf("failed to start consent expiry worker: %w", err)
	}
	if err := app.dsarMonitorWorker.Start(); err != nil {
		return fmt.Errorf("failed to start dsar monitor: %w", err)
	}

	go func() {
		app.log.Info("Starting server",
			"address", app.cfg.Server.Address(),
			"environment", app.cfg.Environment,
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.Fatal("Failed to start server", "error", err)
		}
	}()

	go app.collectPoolMetrics()

	return nil
}

// collectPoolMetrics periodically exports connection pool stats
func (app *Application) collectPoolMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := app.db.Stats()
		metrics.DatabaseConnectionsGauge.WithLabelValues("open").Set(float64(stats.OpenConnections))
		metrics.DatabaseConnectionsGauge.WithLabelValues("idle").Set(float64(stats.Idle))
		metrics.DatabaseConnectionsGauge.WithLabelValues("in_use").Set(float64(stats.InUse))
	}
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.log.Info("Shutting down server...")

	app.consentExpiryWorker.Stop()
	app.dsarMonitorWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Warn("Error closing redis client", "error", err)
		}
	}

	if app.tracingShutdown != nil {
		if err := app.tracingShutdown(context.Background()); err != nil {
			app.log.Warn("Error shutting down tracing", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.log.Warn("Error closing database", "error", err)
	}

	app.log.Info("Server exited gracefully")
	return nil
}

// WaitForShutdown waits for interrupt signal
func (app *Application) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
