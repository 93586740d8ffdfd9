package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/kapu/quickaccess-catalog-go/internal/catalog"
	"github.com/kapu/quickaccess-catalog-go/internal/config"
	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/itemdb"
	"github.com/kapu/quickaccess-catalog-go/internal/provenance"
	"github.com/kapu/quickaccess-catalog-go/internal/service/cache"
	"github.com/kapu/quickaccess-catalog-go/internal/studio"
	"github.com/kapu/quickaccess-catalog-go/internal/translation"
)

// Container holds the assembled catalog and everything that must be released with it.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Database itemdb.Database
	Cache    *catalog.TranslationCache
	Index    *catalog.Index
	Studio   *studio.Client

	// AI is nil unless the AI translator is the async provider.
	AI *translation.AITranslator

	closers    []func() // translators, run before the final cache flush
	finalizers []func() // stores and database connections, run after it
	skipped    int
}

// Skipped is the number of database items that could not be indexed.
func (c *Container) Skipped() int {
	return c.skipped
}

// Close stops the translators, flushes the translation cache and releases connections.
func (c *Container) Close(ctx context.Context) error {
	runClosers(c.closers)
	c.closers = nil
	defer func() {
		runClosers(c.finalizers)
		c.finalizers = nil
	}()

	if c.Cache == nil {
		return nil
	}
	if err := c.Cache.Close(ctx); err != nil {
		return fmt.Errorf("failed to flush translation cache: %w", err)
	}
	return nil
}

func runClosers(closers []func()) {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
}

// Build assembles the item database, translation providers, cache and index, then loads
// the catalog. Resources opened before a failure are released before returning.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := &Container{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			runClosers(c.closers)
			runClosers(c.finalizers)
		}
	}()

	// Item database
	db, dbCloser, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if dbCloser != nil {
		c.finalizers = append(c.finalizers, dbCloser)
	}
	c.Database = db

	// Translation cache
	store, storeCloser, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if storeCloser != nil {
		c.finalizers = append(c.finalizers, storeCloser)
	}
	c.Cache = catalog.NewTranslationCache(store, cfg.Cache.Debounce, logger)
	if err := c.Cache.Load(ctx); err != nil {
		// A broken cache only costs re-translation.
		logger.Warn("Translation cache unavailable, starting empty", zap.Error(err))
	}

	// Translation providers
	var syncT catalog.SyncTranslator
	if cfg.Translation.GettextDir != "" {
		gettext, gtErr := translation.NewGettextTranslator(cfg.Translation.GettextDir, cfg.Translation.Locale, logger)
		if gtErr != nil {
			logger.Warn("Failed to load item name dictionary", zap.Error(gtErr))
		} else {
			syncT = gettext
		}
	}

	asyncT, err := c.openAsyncTranslator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Provenance
	var prov catalog.ProvenanceResolver
	if cfg.Provenance.File != "" {
		static, provErr := provenance.LoadFile(cfg.Provenance.File)
		if provErr != nil {
			return nil, fmt.Errorf("failed to load provenance table: %w", provErr)
		}
		logger.Info("Provenance table loaded", zap.Int("items", static.Len()))
		prov = static
	}

	// Studio host
	var host catalog.Materializer
	if cfg.Studio.BaseURL != "" {
		c.Studio = studio.NewClient(cfg.Studio.BaseURL, logger)
		host = c.Studio
	}

	index, err := catalog.NewIndex(catalog.EntryDeps{
		Database:   db,
		Overlay:    catalog.NewOverlay(syncT, asyncT, logger),
		Cache:      c.Cache,
		Provenance: prov,
		Host:       host,
		Search:     catalog.NewSearchSettings(cfg.Search.DeveloperSearch),
		Logger:     logger,
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog index: %w", err)
	}

	skipped, err := index.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	c.Index = index
	c.skipped = skipped
	return c, nil
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (itemdb.Database, func(), error) {
	var schema itemdb.Schema
	if cfg.ItemDB.Schema != "" || cfg.ItemDB.Source == "postgres" {
		s, err := itemdb.SchemaByName(cfg.ItemDB.Schema)
		if err != nil {
			return nil, nil, err
		}
		schema = s
	}

	switch cfg.ItemDB.Source {
	case "postgres":
		pg, err := itemdb.OpenPostgres(ctx, itemdb.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, schema, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres item database: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		mem, err := itemdb.LoadFile(cfg.ItemDB.Path, schema)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load item database: %w", err)
		}
		logger.Info("Item database loaded",
			zap.String("path", cfg.ItemDB.Path),
			zap.String("schema", mem.Schema().Name()),
			zap.Int("items", mem.Len()),
		)
		return mem, nil, nil
	}
}

func openStore(cfg *config.Config, logger *zap.Logger) (catalog.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		redisStore, err := cache.NewRedisStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			HashKey:  cfg.Redis.HashKey,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis cache store: %w", err)
		}
		return redisStore, func() { _ = redisStore.Close() }, nil
	case "file":
		return cache.NewFileStore(cfg.Cache.FilePath, logger), nil, nil
	default:
		logger.Info("Translation cache is memory only")
		return nil, nil, nil
	}
}

func (c *Container) openAsyncTranslator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (catalog.AsyncTranslator, error) {
	switch cfg.Translation.AsyncProvider {
	case "ai":
		modelManager, err := translation.NewModelManager(ctx, translation.ModelManagerConfig{
			GeminiAPIKey:       cfg.Translation.GeminiAPIKey,
			OpenAIAPIKey:       cfg.Translation.OpenAIAPIKey,
			DefaultGeminiModel: cfg.Translation.GeminiModel,
			DefaultOpenAIModel: cfg.Translation.OpenAIModel,
			EnableFallback:     cfg.Translation.EnableFallback,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model manager: %w", err)
		}
		ai := translation.NewAITranslator(modelManager, translation.AIConfig{
			TargetLanguage: languageName(cfg.Translation.Locale),
			RequestTimeout: cfg.Translation.RequestTimeout,
			MaxConcurrent:  cfg.Translation.MaxConcurrent,
			MaxTextLength:  constants.TranslationConfig.MaxTextLength,
		}, logger)
		c.AI = ai
		c.closers = append(c.closers, ai.Close)
		return ai, nil
	case "bridge":
		bridge := translation.NewBridgeTranslator(cfg.Translation.BridgeURL, logger)
		if err := bridge.Connect(ctx); err != nil {
			// The bridge keeps reconnecting in the background; names stay untranslated meanwhile.
			logger.Warn("Translation bridge not reachable yet", zap.Error(err))
		}
		c.closers = append(c.closers, func() { _ = bridge.Close() })
		return bridge, nil
	default:
		return nil, nil
	}
}

// languageName turns a locale such as "en_US" into the English language name used in prompts.
func languageName(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return "English"
	}
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return "English"
}
