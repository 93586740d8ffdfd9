package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "file", cfg.ItemDB.Source)
	assert.Equal(t, "none", cfg.Translation.AsyncProvider)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, 2*time.Second, cfg.Cache.Debounce)
	assert.False(t, cfg.Search.DeveloperSearch)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ITEMDB_SOURCE", "Postgres")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("TRANSLATION_ASYNC_PROVIDER", "ai")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("CACHE_FLUSH_DEBOUNCE", "500ms")
	t.Setenv("TRANSLATION_TIMEOUT", "7")
	t.Setenv("DEVELOPER_SEARCH", "true")
	t.Setenv("REDIS_PORT", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "postgres", cfg.ItemDB.Source)
	assert.Equal(t, 6543, cfg.Postgres.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.Debounce)
	assert.Equal(t, 7*time.Second, cfg.Translation.RequestTimeout)
	assert.True(t, cfg.Search.DeveloperSearch)
	assert.Equal(t, 6379, cfg.Redis.Port, "invalid numbers fall back to the default")
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown item source":   func(c *Config) { c.ItemDB.Source = "sqlite" },
		"missing item path":     func(c *Config) { c.ItemDB.Path = "" },
		"ai without keys":       func(c *Config) { c.Translation.AsyncProvider = "ai" },
		"bridge without url":    func(c *Config) { c.Translation.AsyncProvider = "bridge"; c.Translation.BridgeURL = "" },
		"unknown provider":      func(c *Config) { c.Translation.AsyncProvider = "deepl" },
		"unknown cache":         func(c *Config) { c.Cache.Backend = "memcached" },
		"file cache no path":    func(c *Config) { c.Cache.FilePath = "" },
		"non-positive workers":  func(c *Config) { c.Translation.MaxConcurrent = 0 },
		"postgres without host": func(c *Config) { c.ItemDB.Source = "postgres"; c.Postgres.Host = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := FromEnv()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
