package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")
	t.Setenv("AI_PROVIDER", "")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude", cfg.AI.Provider)
	assert.Equal(t, 4096, cfg.AI.MaxTokens)
	assert.Equal(t, 90*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 100, cfg.Queue.MaxSize)
	assert.Equal(t, 168*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.Cache.Compress)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.False(t, cfg.Storage.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.Image.MaxImages)
	assert.Equal(t, 2*time.Second, cfg.DedupWindow)
	assert.False(t, cfg.Claude.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("AI_PROVIDER", " OpenAI ")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("HISTORY_DRIVER", "postgres")
	t.Setenv("HISTORY_DSN", "postgres://u:p@db/labels?sslmode=disable")
	t.Setenv("APP_SERVER_PORT", "9090")
	t.Setenv("APP_CACHE_TTL", "24h")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.True(t, cfg.OpenAI.Enabled())
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, "postgres", cfg.History.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
	}{
		{"unknown provider", "ai.provider", "gemini"},
		{"zero port", "server.port", 0},
		{"zero max tokens", "ai.max_tokens", 0},
		{"zero workers", "queue.workers", 0},
		{"unknown cache backend", "cache.backend", "memcached"},
		{"zero ttl", "cache.ttl", "0s"},
		{"unknown history driver", "history.driver", "oracle"},
		{"empty dsn", "history.dsn", ""},
		{"storage without endpoint", "storage.enabled", true},
		{"zero rate limit", "rate_limit.requests", 0},
		{"zero images", "image.max_images", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AI_PROVIDER", "")
			t.Setenv("CACHE_BACKEND", "")
			t.Setenv("HISTORY_DRIVER", "")
			t.Setenv("HISTORY_DSN", "")
			t.Setenv("STORAGE_ENABLED", "")

			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestDisabledSectionsSkipValidation(t *testing.T) {
	v := viper.New()
	v.Set("cache.enabled", false)
	v.Set("cache.backend", "memcached")
	v.Set("history.enabled", false)
	v.Set("history.driver", "oracle")

	_, err := Load(v)
	assert.NoError(t, err)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-a...wxyz", MaskAPIKey("sk-ant-abcdefwxyz"))
}

func TestHistoryDriverAlias(t *testing.T) {
	v := viper.New()
	v.Set("history.driver", "MariaDB")
	v.Set("history.dsn", "user:pass@tcp(db:3306)/labels")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.History.Driver)
}
