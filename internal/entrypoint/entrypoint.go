package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mrlokans/mylibrary/internal/ai"
	"github.com/mrlokans/mylibrary/internal/audit"
	"github.com/mrlokans/mylibrary/internal/auth"
	"github.com/mrlokans/mylibrary/internal/catalog"
	"github.com/mrlokans/mylibrary/internal/config"
	"github.com/mrlokans/mylibrary/internal/covers"
	"github.com/mrlokans/mylibrary/internal/database"
	"github.com/mrlokans/mylibrary/internal/database/aicache"
	auditRepo "github.com/mrlokans/mylibrary/internal/database/audit"
	"github.com/mrlokans/mylibrary/internal/database/books"
	"github.com/mrlokans/mylibrary/internal/database/settings"
	"github.com/mrlokans/mylibrary/internal/database/users"
	http_controllers "github.com/mrlokans/mylibrary/internal/http"
	"github.com/mrlokans/mylibrary/internal/logger"
	"github.com/mrlokans/mylibrary/internal/scheduler"
	"github.com/mrlokans/mylibrary/internal/tasks"
)

// catalogMemoryEntries bounds the in-process search cache used without Redis.
const catalogMemoryEntries = 500

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("listen")
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT. SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.WithField("timeout", timeout).Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so in-flight tasks can finish
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("server shutdown")
	}

	logrus.Info("server exiting")
}

func Run(cfg *config.Config, version string) {
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	logrus.WithField("version", version).Info("starting MyLibrary")

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("error closing database")
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	defer auditService.Wait()

	redisClient := newRedisClient(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	authService, limiter := newAuth(cfg.Auth, db, redisClient)

	provider := newCatalog(cfg.Catalog, redisClient)

	coverCache, err := covers.NewCache(cfg.Covers.CacheDir)
	if err != nil {
		logrus.WithError(err).Warn("failed to initialize cover cache")
	} else {
		logrus.WithField("dir", coverCache.CacheDir()).Info("cover cache initialized")
	}

	// Enrichment targets stored books; Google Books first, OpenLibrary as fallback
	syncProgress := database.NewEnrichmentProgress(db)
	enricher := catalog.NewEnricher(database.NewMetadataUpdater(db), provider.primary, provider.fallback)
	enricher.SetProgressReporter(syncProgress)
	if coverCache != nil {
		enricher.SetCoverInvalidator(coverCache)
	}

	generator, err := ai.NewGenerator(cfg.AI)
	if err != nil {
		logrus.WithError(err).Warn("AI provider unavailable, using offline generator")
		generator = ai.NewStaticGenerator()
	}
	aiCache := aicache.NewRepository(db.DB)
	recommender := ai.NewRecommender(generator, bookRepo, aiCache, ai.RecommenderConfig{
		TTL:                cfg.AI.RecommendTTL,
		MaxRecommendations: cfg.AI.MaxRecommendable,
	})
	summarizer := ai.NewSummarizer(generator, bookRepo, aiCache)

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logrus.WithError(err).Error("error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewEnrichBookQueue(enricher, auditService),
			tasks.NewEnrichAllBooksQueue(enricher),
			tasks.NewWarmRecommendationsQueue(bookRepo, recommender),
			tasks.NewCleanupAuditEventsQueue(auditService),
			tasks.NewPurgeAICacheQueue(aiCache),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Scheduler.Enabled {
			maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.DefaultJobs(cfg.Scheduler, cfg.Audit.RetentionDays))
			if err := maintenance.Start(taskCtx); err != nil {
				logrus.WithError(err).Error("failed to start maintenance scheduler")
				maintenance = nil
			}
		}
	} else if cfg.Scheduler.Enabled {
		logrus.Warn("scheduler requires the task queue, set TASKS_ENABLED=true")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:          db,
		Books:             bookRepo,
		Prefs:             settings.NewRepository(db.DB),
		Auditor:           auditService,
		AuditLog:          auditService,
		AuthAudit:         auditService,
		AuthService:       authService,
		LoginLimiter:      limiter,
		Catalog:           provider.search,
		CatalogMaxResults: cfg.Catalog.MaxResults,
		Enricher:          enricher,
		SyncProgress:      syncProgress,
		Recommender:       recommender,
		Summarizer:        summarizer,
		ImagesDir:         cfg.Images.Dir,
		ImagesBaseURL:     cfg.Images.BaseURL,
		Version:           version,
	}
	// Interface fields stay nil when the feature is off so routes are not mounted
	if coverCache != nil {
		routerCfg.CoverCache = coverCache
	}
	if redisClient != nil {
		routerCfg.CachePinger = redisPinger{client: redisClient}
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
		routerCfg.TaskPinger = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// newRedisClient returns nil when no address is configured or the server
// does not answer, in which case in-memory stores are used.
func newRedisClient(cfg config.Redis) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).WithField("addr", cfg.Addr).Warn("redis unavailable, falling back to in-memory stores")
		_ = client.Close()
		return nil
	}
	logrus.WithField("addr", cfg.Addr).Info("connected to redis")
	return client
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func newAuth(cfg config.Auth, db *database.Database, redisClient *redis.Client) (*auth.Service, auth.LoginLimiter) {
	rateCfg := auth.RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	}

	var revoker auth.TokenRevoker
	var limiter auth.LoginLimiter
	if redisClient != nil {
		revoker = auth.NewRedisTokenRevoker(redisClient)
		limiter = auth.NewRedisRateLimiter(redisClient, rateCfg)
	} else {
		revoker = auth.NewMemoryTokenRevoker()
		limiter = auth.NewMemoryRateLimiter(rateCfg)
	}

	if cfg.JWTSecret == "" {
		logrus.Warn("AUTH_JWT_SECRET is not set, tokens will not survive a restart")
	}
	issuer, err := auth.NewTokenIssuer(cfg, revoker)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize token issuer")
	}
	return auth.NewService(users.NewRepository(db.DB), issuer, cfg), limiter
}

type catalogProviders struct {
	primary  catalog.Provider
	fallback catalog.Provider
	// search is the cached primary provider served to clients
	search catalog.Provider
}

func newCatalog(cfg config.Catalog, redisClient *redis.Client) catalogProviders {
	google := catalog.NewGoogleBooksClient(catalog.GoogleBooksConfig{
		BaseURL:           cfg.GoogleBooksURL,
		APIKey:            cfg.GoogleBooksAPIKey,
		Timeout:           cfg.Timeout,
		MaxResults:        cfg.MaxResults,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	openLibrary := catalog.NewOpenLibraryClient(cfg.OpenLibraryURL, cfg.Timeout)

	var cache catalog.SearchCache
	if redisClient != nil {
		cache = catalog.NewRedisCache(redisClient, cfg.CacheTTL)
	} else {
		cache = catalog.NewMemoryCache(cfg.CacheTTL, catalogMemoryEntries)
	}

	return catalogProviders{
		primary:  google,
		fallback: openLibrary,
		search:   catalog.NewCachedProvider(google, cache),
	}
}
