package catalog

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/kapu/quickaccess-catalog-go/internal/constants"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
	"go.uber.org/zap"
)

// Store persists the translation map as a whole.
type Store interface {
	Name() string
	Load(ctx context.Context) (map[string]domain.NameTriple, error)
	Save(ctx context.Context, entries map[string]domain.NameTriple) error
}

// TranslationCache keeps resolved name triples in memory and writes them back to a Store
// with a debounce, so that a burst of translations at load time ends up as one write.
// A nil store keeps the cache in memory only.
type TranslationCache struct {
	store    Store
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[CacheIdentity]domain.NameTriple
	dirty   bool
	timer   *time.Timer
	closed  bool

	// flushMu serializes snapshot-and-write so two flushes never interleave.
	flushMu sync.Mutex
}

func NewTranslationCache(store Store, debounce time.Duration, logger *zap.Logger) *TranslationCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = constants.CacheConfig.FlushDebounce
	}

	return &TranslationCache{
		store:    store,
		debounce: debounce,
		logger:   logger,
		entries:  make(map[CacheIdentity]domain.NameTriple),
	}
}

// Load replaces the in-memory map with the store's content.
func (c *TranslationCache) Load(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	loaded, err := c.store.Load(ctx)
	if err != nil {
		return errors.NewCacheError("failed to load translation cache", "load", c.store.Name(), err)
	}

	entries := make(map[CacheIdentity]domain.NameTriple, len(loaded))
	for key, triple := range loaded {
		entries[CacheIdentity(key)] = triple
	}

	c.mu.Lock()
	c.entries = entries
	c.dirty = false
	c.mu.Unlock()

	c.logger.Info("Translation cache loaded",
		zap.String("store", c.store.Name()),
		zap.Int("entries", len(entries)),
	)
	return nil
}

func (c *TranslationCache) Lookup(id CacheIdentity) (domain.NameTriple, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	triple, ok := c.entries[id]
	return triple, ok
}

// Store records a triple and marks the cache dirty. It never touches the store and
// reports whether the cached value changed.
func (c *TranslationCache) Store(id CacheIdentity, triple domain.NameTriple) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok && existing == triple {
		return false
	}
	c.entries[id] = triple
	c.dirty = true
	return true
}

// FlushAsync schedules a flush after the debounce window. Calls made while a flush is
// already scheduled are folded into it.
func (c *TranslationCache) FlushAsync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.store == nil || c.timer != nil {
		return
	}
	c.timer = time.AfterFunc(c.debounce, c.flushScheduled)
}

func (c *TranslationCache) flushScheduled() {
	c.mu.Lock()
	c.timer = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), constants.CacheConfig.FlushTimeout)
	defer cancel()

	if err := c.Flush(ctx); err != nil {
		c.logger.Warn("Scheduled translation cache flush failed", zap.Error(err))
	}
}

// Flush writes the cache now if it is dirty.
func (c *TranslationCache) Flush(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]domain.NameTriple, len(c.entries))
	for id, triple := range c.entries {
		snapshot[string(id)] = triple
	}
	c.dirty = false
	c.mu.Unlock()

	if err := c.store.Save(ctx, snapshot); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return errors.NewCacheError("failed to save translation cache", "save", c.store.Name(), err)
	}

	c.logger.Debug("Translation cache flushed",
		zap.String("store", c.store.Name()),
		zap.Int("entries", len(snapshot)),
	)
	return nil
}

// Close cancels a pending scheduled flush and flushes synchronously.
func (c *TranslationCache) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	return c.Flush(ctx)
}

func (c *TranslationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of the cached triples.
func (c *TranslationCache) Snapshot() map[CacheIdentity]domain.NameTriple {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.entries)
}
