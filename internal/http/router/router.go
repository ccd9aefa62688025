package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/database"
	"github.com/projecthub-edu/projecthub-api/internal/http/handler"
	"github.com/projecthub-edu/projecthub-api/internal/http/middleware"
	"github.com/projecthub-edu/projecthub-api/internal/sis"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/projecthub-edu/projecthub-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                 *config.Config
	logger              *zap.Logger
	db                  *gorm.DB
	sisClient           *sis.Client
	authMiddleware      *auth.Middleware
	rateLimiter         *middleware.RateLimiter
	authHandler         *handler.AuthHandler
	projectHandler      *handler.ProjectHandler
	groupHandler        *handler.GroupHandler
	deliverableHandler  *handler.DeliverableHandler
	reportHandler       *handler.ReportHandler
	evaluationHandler   *handler.EvaluationHandler
	promotionHandler    *handler.PromotionHandler
	defenseHandler      *handler.DefenseHandler
	notificationHandler *handler.NotificationHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	sisClient *sis.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	groupHandler *handler.GroupHandler,
	deliverableHandler *handler.DeliverableHandler,
	reportHandler *handler.ReportHandler,
	evaluationHandler *handler.EvaluationHandler,
	promotionHandler *handler.PromotionHandler,
	defenseHandler *handler.DefenseHandler,
	notificationHandler *handler.NotificationHandler,
) *Router {
	return &Router{
		cfg:                 cfg,
		logger:              logger,
		db:                  db,
		sisClient:           sisClient,
		authMiddleware:      authMiddleware,
		rateLimiter:         rateLimiter,
		authHandler:         authHandler,
		projectHandler:      projectHandler,
		groupHandler:        groupHandler,
		deliverableHandler:  deliverableHandler,
		reportHandler:       reportHandler,
		evaluationHandler:   evaluationHandler,
		promotionHandler:    promotionHandler,
		defenseHandler:      defenseHandler,
		notificationHandler: notificationHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		// Check SIS connection when configured; it is optional and does not
		// fail readiness
		if rt.sisClient.IsEnabled() {
			checks["sis"] = rt.sisClient.HealthCheck(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)
		r.Post("/auth/register", rt.authHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)

			// Projects (proxied upstream)
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Get("/{id}/groups", rt.projectHandler.ListGroups)
				r.Put("/{id}", rt.projectHandler.Update)
				r.With(rt.authMiddleware.RequireTeacher).Delete("/{id}", rt.projectHandler.Delete)
			})

			// Groups (proxied upstream)
			r.Route("/groups", func(r chi.Router) {
				r.Get("/", rt.groupHandler.List)
				r.Post("/", rt.groupHandler.Create)
				r.Get("/{id}", rt.groupHandler.GetByID)
				r.Put("/{id}", rt.groupHandler.Update)
				r.Delete("/{id}", rt.groupHandler.Delete)
				r.Post("/{id}/join", rt.groupHandler.Join)
				r.Post("/{id}/leave", rt.groupHandler.Leave)
			})

			// Deliverables (metadata proxied, artifact files served locally)
			r.Route("/deliverables", func(r chi.Router) {
				r.Get("/", rt.deliverableHandler.List)
				r.With(rt.authMiddleware.RequireTeacher).Post("/", rt.deliverableHandler.Create)
				r.Get("/{id}", rt.deliverableHandler.GetByID)
				r.With(rt.authMiddleware.RequireTeacher).Put("/{id}", rt.deliverableHandler.Update)
				r.Get("/{id}/artifacts", rt.deliverableHandler.ListArtifacts)
				r.Post("/{id}/artifacts", rt.deliverableHandler.UploadArtifact)
				r.Get("/{id}/artifacts/{artifactId}/download", rt.deliverableHandler.DownloadArtifact)
				r.Delete("/{id}/artifacts/{artifactId}", rt.deliverableHandler.DeleteArtifact)
			})

			// Reports (proxied upstream)
			r.Route("/reports", func(r chi.Router) {
				r.Get("/", rt.reportHandler.List)
				r.Post("/", rt.reportHandler.Create)
				r.Get("/{id}", rt.reportHandler.GetByID)
				r.Put("/{id}", rt.reportHandler.Update)
				r.Delete("/{id}", rt.reportHandler.Delete)
			})

			// Evaluations (proxied upstream, grading restricted to teachers)
			r.Route("/evaluations", func(r chi.Router) {
				r.Get("/", rt.evaluationHandler.List)
				r.Get("/{id}", rt.evaluationHandler.GetByID)
				r.With(rt.authMiddleware.RequireTeacher).Post("/", rt.evaluationHandler.Create)
				r.With(rt.authMiddleware.RequireTeacher).Put("/{id}", rt.evaluationHandler.Update)
			})

			// Promotions (gateway-owned)
			r.Route("/promotions", func(r chi.Router) {
				r.Get("/", rt.promotionHandler.List)
				r.Get("/{id}", rt.promotionHandler.GetByID)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireTeacher)
					r.Post("/", rt.promotionHandler.Create)
					r.Put("/{id}", rt.promotionHandler.Update)
					r.Delete("/{id}", rt.promotionHandler.Delete)
					r.Post("/{id}/members", rt.promotionHandler.AddMember)
					r.Delete("/{id}/members/{memberId}", rt.promotionHandler.RemoveMember)
					r.Post("/{id}/import", rt.promotionHandler.ImportRoster)
				})
			})

			// Defenses (gateway-owned)
			r.Route("/defenses", func(r chi.Router) {
				r.Get("/", rt.defenseHandler.List)
				r.Get("/upcoming", rt.defenseHandler.Upcoming)
				r.Get("/stats", rt.defenseHandler.Stats)
				r.Get("/{id}", rt.defenseHandler.GetByID)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireTeacher)
					r.Post("/", rt.defenseHandler.Create)
					r.Put("/{id}", rt.defenseHandler.Update)
					r.Delete("/{id}", rt.defenseHandler.Cancel)
				})
			})

			// Notifications (gateway-owned)
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", rt.notificationHandler.List)
				r.Get("/count", rt.notificationHandler.GetUnreadCount)
				r.Post("/read-all", rt.notificationHandler.MarkAllAsRead)
				r.Post("/{id}/read", rt.notificationHandler.MarkAsRead)
			})
		})
	})

	return r
}
