package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := newConfig(viper.New())

	assert.Equal(t, int32(3000), cfg.HTTP.Port)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultGoogleBooksURL, cfg.Catalog.GoogleBooksURL)
	assert.Equal(t, 15*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 20, cfg.Catalog.MaxResults)
	assert.Equal(t, AIProviderNone, cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenExpiry)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.Tasks.Enabled)
	assert.False(t, cfg.Scheduler.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("AI_PROVIDER", "gemini")
	t.Setenv("CATALOG_TIMEOUT", "3s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("IMAGE_BASE_URL", "http://example.org")

	cfg := newConfig(viper.New())

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, AIProviderGemini, cfg.AI.Provider)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "http://example.org", cfg.Images.BaseURL)
}
