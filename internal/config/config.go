package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type AIProvider string

const (
	AIProviderNone   AIProvider = "none"   // Deterministic offline generator
	AIProviderGemini AIProvider = "gemini" // Google Gemini generateContent API
	AIProviderOpenAI AIProvider = "openai" // Any OpenAI-compatible /chat/completions endpoint
)

type (
	Config struct {
		HTTP
		Global
		Database
		Audit
		Tasks
		Auth
		Catalog
		AI
		Redis
		Covers
		Scheduler
		Log
		Images
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 30)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		JWTSecret   string
		JWTIssuer   string
		TokenExpiry time.Duration
		BcryptCost  int

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Catalog struct {
		GoogleBooksURL    string
		GoogleBooksAPIKey string
		OpenLibraryURL    string
		Timeout           time.Duration
		MaxResults        int
		RequestsPerSecond float64
		CacheTTL          time.Duration
	}
	AI struct {
		Provider         AIProvider
		APIKey           string
		Model            string
		BaseURL          string
		Timeout          time.Duration
		RecommendTTL     time.Duration
		MaxRecommendable int
	}
	Redis struct {
		Addr     string // Empty disables Redis; in-memory stores are used instead
		Password string
		DB       int
	}
	Covers struct {
		CacheDir string
	}
	Scheduler struct {
		Enabled           bool
		EnrichSchedule    string // Cron format: "0 3 * * *" = daily at 03:00
		CleanupSchedule   string // Cron format: "30 4 * * *" = daily at 04:30
		RecommendSchedule string // Cron format: "0 5 * * *" = daily at 05:00
	}
	Log struct {
		Level  string
		Format string // "text" or "json"
	}
	Images struct {
		BaseURL string // Prefix for badge image paths, empty means relative
		Dir     string // Directory served under /images
	}
)

// loadDotEnv reads a .env file when present so local runs pick up secrets
// without exporting them in the shell.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("failed to load .env")
	}
}

func NewConfig() *Config {
	loadDotEnv()
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("audit_retention_days", 30)

	// Auth defaults
	v.SetDefault("auth_jwt_secret", "")           // Auto-generated if empty
	v.SetDefault("auth_jwt_issuer", "mylibrary")  // iss claim
	v.SetDefault("auth_token_expiry", "720h")     // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Catalog defaults
	v.SetDefault("google_books_url", DefaultGoogleBooksURL)
	v.SetDefault("google_books_api_key", "")
	v.SetDefault("openlibrary_url", DefaultOpenLibraryURL)
	v.SetDefault("catalog_timeout", "15s")
	v.SetDefault("catalog_max_results", 20)
	v.SetDefault("catalog_rps", 5)
	v.SetDefault("catalog_cache_ttl", "10m")

	// AI defaults
	v.SetDefault("ai_provider", string(AIProviderNone))
	v.SetDefault("ai_api_key", "")
	v.SetDefault("ai_model", "gemini-2.0-flash")
	v.SetDefault("ai_base_url", "")
	v.SetDefault("ai_timeout", "30s")
	v.SetDefault("ai_recommend_ttl", "24h")
	v.SetDefault("ai_max_recommendations", 6)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("covers_cache_dir", DefaultCoversCacheDir)

	v.SetDefault("scheduler_enabled", false)
	v.SetDefault("scheduler_enrich_schedule", "0 3 * * *")
	v.SetDefault("scheduler_cleanup_schedule", "30 4 * * *")
	v.SetDefault("scheduler_recommend_schedule", "0 5 * * *")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("image_base_url", "")
	v.SetDefault("images_dir", "./images")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			JWTSecret:        v.GetString("AUTH_JWT_SECRET"),
			JWTIssuer:        v.GetString("AUTH_JWT_ISSUER"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Catalog: Catalog{
			GoogleBooksURL:    v.GetString("GOOGLE_BOOKS_URL"),
			GoogleBooksAPIKey: v.GetString("GOOGLE_BOOKS_API_KEY"),
			OpenLibraryURL:    v.GetString("OPENLIBRARY_URL"),
			Timeout:           v.GetDuration("CATALOG_TIMEOUT"),
			MaxResults:        v.GetInt("CATALOG_MAX_RESULTS"),
			RequestsPerSecond: v.GetFloat64("CATALOG_RPS"),
			CacheTTL:          v.GetDuration("CATALOG_CACHE_TTL"),
		},
		AI: AI{
			Provider:         AIProvider(v.GetString("AI_PROVIDER")),
			APIKey:           v.GetString("AI_API_KEY"),
			Model:            v.GetString("AI_MODEL"),
			BaseURL:          v.GetString("AI_BASE_URL"),
			Timeout:          v.GetDuration("AI_TIMEOUT"),
			RecommendTTL:     v.GetDuration("AI_RECOMMEND_TTL"),
			MaxRecommendable: v.GetInt("AI_MAX_RECOMMENDATIONS"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Covers: Covers{
			CacheDir: v.GetString("COVERS_CACHE_DIR"),
		},
		Scheduler: Scheduler{
			Enabled:           v.GetBool("SCHEDULER_ENABLED"),
			EnrichSchedule:    v.GetString("SCHEDULER_ENRICH_SCHEDULE"),
			CleanupSchedule:   v.GetString("SCHEDULER_CLEANUP_SCHEDULE"),
			RecommendSchedule: v.GetString("SCHEDULER_RECOMMEND_SCHEDULE"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Images: Images{
			BaseURL: v.GetString("IMAGE_BASE_URL"),
			Dir:     v.GetString("IMAGES_DIR"),
		},
	}
}
