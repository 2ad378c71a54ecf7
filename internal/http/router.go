package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/mylibrary/internal/auth"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	router.Use(metrics.Middleware())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not found")
	})

	// Health and metrics endpoints
	health := NewHealthController(cfg.Version, healthChecks(cfg)...)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)
	router.GET("/metrics", metrics.Handler())

	// Badge images referenced by /api/badges
	if cfg.ImagesDir != "" {
		router.Static("/images", cfg.ImagesDir)
	}

	api := router.Group("/api")
	protected := api.Group("")
	protected.Use(auth.NewMiddleware(cfg.AuthService).Handler())

	auth.NewAuthController(cfg.AuthService, cfg.LoginLimiter, cfg.AuthAudit).RegisterRoutes(api, protected)

	NewBooksController(cfg.Books, cfg.TaskQueue, cfg.Auditor).RegisterRoutes(protected)
	NewStatsController(cfg.Books, cfg.ImagesBaseURL).RegisterRoutes(protected)

	if cfg.Prefs != nil {
		NewPreferencesController(cfg.Prefs, cfg.Auditor).RegisterRoutes(protected)
	}

	if cfg.Catalog != nil {
		NewSearchController(cfg.Catalog, cfg.CatalogMaxResults).RegisterRoutes(protected)
	}

	// Book metadata enrichment endpoints
	if cfg.Enricher != nil {
		NewMetadataController(cfg.Books, cfg.Enricher, cfg.SyncProgress, cfg.TaskQueue, cfg.Auditor).RegisterRoutes(protected)
	}

	if cfg.CoverCache != nil {
		protected.GET("/livres/:id/cover", NewCoversController(cfg.CoverCache, cfg.Books).GetCover)
	}

	if cfg.Recommender != nil && cfg.Summarizer != nil {
		NewAIController(cfg.Recommender, cfg.Summarizer, cfg.Catalog, cfg.Auditor).RegisterRoutes(protected)
	}

	// Task management endpoints
	if cfg.TaskQueue != nil {
		NewTasksController(cfg.TaskQueue, cfg.Books).RegisterRoutes(protected)
	}

	if cfg.AuditLog != nil {
		protected.GET("/audit", NewAuditController(cfg.AuditLog).GetAuditEvents)
	}

	return router
}

// healthChecks always reports the database; the task queue and the cache
// only when they are enabled.
func healthChecks(cfg RouterConfig) []HealthCheck {
	checks := []HealthCheck{{Name: "database", Pinger: cfg.Database, Required: true}}
	if cfg.TaskPinger != nil {
		checks = append(checks, HealthCheck{Name: "tasks", Pinger: cfg.TaskPinger})
	}
	if cfg.CachePinger != nil {
		checks = append(checks, HealthCheck{Name: "redis", Pinger: cfg.CachePinger})
	}
	return checks
}
