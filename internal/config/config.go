package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
)

type Config struct {
	ItemDB      ItemDBConfig
	Postgres    PostgresConfig
	Translation TranslationConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Provenance  ProvenanceConfig
	Studio      StudioConfig
	Search      SearchConfig
	Logging     LoggingConfig
}

type ItemDBConfig struct {
	Source string // file | postgres
	Path   string
	Schema string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type TranslationConfig struct {
	GettextDir     string
	Locale         string
	AsyncProvider  string // none | ai | bridge
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	EnableFallback bool
	BridgeURL      string
	RequestTimeout time.Duration
	MaxConcurrent  int
}

type CacheConfig struct {
	Backend  string // file | redis | none
	FilePath string
	Debounce time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	HashKey  string
}

type ProvenanceConfig struct {
	File string
}

type StudioConfig struct {
	BaseURL string
}

type SearchConfig struct {
	DeveloperSearch bool
	Limit           int
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv reads the configuration from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		ItemDB: ItemDBConfig{
			Source: strings.ToLower(getEnv("ITEMDB_SOURCE", "file")),
			Path:   getEnv("ITEMDB_PATH", "data/items.yaml"),
			Schema: getEnv("ITEMDB_SCHEMA", ""),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "quickaccess"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "quickaccess"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Translation: TranslationConfig{
			GettextDir:     getEnv("TRANSLATION_PO_DIR", ""),
			Locale:         getEnv("TRANSLATION_LOCALE", "en"),
			AsyncProvider:  strings.ToLower(getEnv("TRANSLATION_ASYNC_PROVIDER", "none")),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
			BridgeURL:      getEnv("TRANSLATION_BRIDGE_URL", "ws://localhost:8765/translate"),
			RequestTimeout: getEnvDuration("TRANSLATION_TIMEOUT", constants.TranslationConfig.RequestTimeout),
			MaxConcurrent:  getEnvInt("TRANSLATION_MAX_CONCURRENT", constants.TranslationConfig.MaxConcurrent),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(getEnv("CACHE_BACKEND", "file")),
			FilePath: getEnv("CACHE_FILE", "cache/translations.json"),
			Debounce: getEnvDuration("CACHE_FLUSH_DEBOUNCE", constants.CacheConfig.FlushDebounce),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			HashKey:  getEnv("REDIS_HASH_KEY", constants.CacheConfig.RedisHashKey),
		},
		Provenance: ProvenanceConfig{
			File: getEnv("PROVENANCE_FILE", ""),
		},
		Studio: StudioConfig{
			BaseURL: getEnv("STUDIO_BASE_URL", ""),
		},
		Search: SearchConfig{
			DeveloperSearch: getEnvBool("DEVELOPER_SEARCH", false),
			Limit:           getEnvInt("SEARCH_LIMIT", 50),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}
}

func (c *Config) Validate() error {
	switch c.ItemDB.Source {
	case "file":
		if c.ItemDB.Path == "" {
			return fmt.Errorf("ITEMDB_PATH is required for the file item database")
		}
	case "postgres":
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required for the postgres item database")
		}
	default:
		return fmt.Errorf("unknown ITEMDB_SOURCE %q", c.ItemDB.Source)
	}

	switch c.Translation.AsyncProvider {
	case "none", "":
	case "ai":
		if c.Translation.GeminiAPIKey == "" && c.Translation.OpenAIAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY or OPENAI_API_KEY is required for AI translation")
		}
	case "bridge":
		if c.Translation.BridgeURL == "" {
			return fmt.Errorf("TRANSLATION_BRIDGE_URL is required for the translation bridge")
		}
	default:
		return fmt.Errorf("unknown TRANSLATION_ASYNC_PROVIDER %q", c.Translation.AsyncProvider)
	}

	switch c.Cache.Backend {
	case "none", "":
	case "file":
		if c.Cache.FilePath == "" {
			return fmt.Errorf("CACHE_FILE is required for the file cache")
		}
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Translation.MaxConcurrent <= 0 {
		return fmt.Errorf("TRANSLATION_MAX_CONCURRENT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("1500ms") or plain seconds ("2").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
