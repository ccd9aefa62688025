package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/projecthub-edu/projecthub-api/docs"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/database"
	"github.com/projecthub-edu/projecthub-api/internal/http/handler"
	"github.com/projecthub-edu/projecthub-api/internal/http/middleware"
	"github.com/projecthub-edu/projecthub-api/internal/http/router"
	"github.com/projecthub-edu/projecthub-api/internal/jobs"
	"github.com/projecthub-edu/projecthub-api/internal/logger"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"github.com/projecthub-edu/projecthub-api/internal/session"
	"github.com/projecthub-edu/projecthub-api/internal/sis"
	"github.com/projecthub-edu/projecthub-api/internal/storage"
	"go.uber.org/zap"
)

// @title ProjectHub API
// @version 1.0
// @description Student project management gateway: projects, groups, deliverables, defenses and promotions

// @contact.name API Support
// @contact.email support@projecthub.edu

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token issued by the backend

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "projecthub-api-staging.internal.projecthub.edu"
	case "production":
		docs.SwaggerInfo.Host = "api.projecthub.edu"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Upstream backend client and service-account session.
	// The session persists across restarts so background jobs do not
	// re-authenticate on every boot.
	backendClient := backend.NewClient(&cfg.Backend, log)
	sessionMedium := session.NewFileMedium(cfg.Backend.SessionFile)
	sessionStore := session.NewStore(sessionMedium, log)
	defer sessionStore.Close()

	// Watch the session file so a rewrite by another process (a second
	// gateway instance logging out the shared service account) reaches this
	// process's subscribers.
	stopWatch := sessionMedium.Watch(cfg.Backend.SessionWatchDuration(), sessionStore.NotifyExternalChange)
	defer stopWatch()

	serviceSession := backend.NewServiceSession(backendClient, sessionStore, &cfg.Backend, log)
	serviceSession.Start()
	defer serviceSession.Stop()

	// Initialize SIS connection (optional - for roster imports)
	// The connection is read-only and the app continues without it
	var sisClient *sis.Client
	if cfg.SIS.Enabled {
		sisClient, err = sis.NewClient(&cfg.SIS, log)
		if err != nil {
			log.Warn("SIS connection failed, continuing without it", zap.Error(err))
		}
	} else {
		log.Info("SIS not configured, roster imports disabled")
	}

	// Initialize repositories
	promotionRepo := repository.NewPromotionRepository(db)
	defenseRepo := repository.NewDefenseRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)

	// Initialize services
	promotionService := service.NewPromotionService(promotionRepo, sisClient, log)
	defenseService := service.NewDefenseService(defenseRepo, notificationRepo, backendClient, log)
	notificationService := service.NewNotificationService(notificationRepo, log)
	artifactService := service.NewArtifactService(artifactRepo, fileStorage, backendClient, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(backendClient, log)
	projectHandler := handler.NewProjectHandler(backendClient, log)
	groupHandler := handler.NewGroupHandler(backendClient, log)
	deliverableHandler := handler.NewDeliverableHandler(backendClient, artifactService, cfg.Storage.MaxUploadSizeMB, log)
	reportHandler := handler.NewReportHandler(backendClient, log)
	evaluationHandler := handler.NewEvaluationHandler(backendClient, log)
	promotionHandler := handler.NewPromotionHandler(promotionService, log)
	defenseHandler := handler.NewDefenseHandler(defenseService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		sisClient,
		authMiddleware,
		rateLimiter,
		authHandler,
		projectHandler,
		groupHandler,
		deliverableHandler,
		reportHandler,
		evaluationHandler,
		promotionHandler,
		defenseHandler,
		notificationHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.DefenseReminderEnabled || (cfg.SIS.RosterSyncEnabled && sisClient.IsEnabled()) {
		scheduler = jobs.NewScheduler(log)

		if cfg.Jobs.DefenseReminderEnabled {
			if err := jobs.RegisterDefenseReminderJob(
				scheduler,
				defenseRepo,
				notificationRepo,
				backendClient,
				serviceSession,
				log,
				cfg.Jobs.DefenseReminderCron,
				cfg.Jobs.ReminderWindowDuration(),
				cfg.Jobs.TimeoutDuration(),
			); err != nil {
				log.Error("Failed to register defense reminder job", zap.Error(err))
			}
		}

		if cfg.SIS.RosterSyncEnabled && sisClient.IsEnabled() {
			if err := jobs.RegisterRosterSyncJob(
				scheduler,
				promotionService,
				log,
				cfg.SIS.RosterSyncCron,
				cfg.Jobs.TimeoutDuration(),
			); err != nil {
				log.Error("Failed to register roster sync job", zap.Error(err))
			}
		}

		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.GetJobNames()))
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close SIS connection if initialized
		if err := sisClient.Close(); err != nil {
			log.Warn("Error closing SIS connection", zap.Error(err))
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
