package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

var woodTriple = domain.NameTriple{GroupName: "Chair", CategoryName: "Bois", ItemName: "Armchair"}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func TestTranslationCacheLoadAndLookup(t *testing.T) {
	store := &fakeStore{data: map[string]domain.NameTriple{"00000001-00000002-Armchair": woodTriple}}
	cache := NewTranslationCache(store, time.Second, zap.NewNop())

	if err := cache.Load(context.Background()); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got, ok := cache.Lookup("00000001-00000002-Armchair")
	if !ok || got != woodTriple {
		t.Fatalf("unexpected lookup result %#v %v", got, ok)
	}
	if _, ok := cache.Lookup("missing"); ok {
		t.Fatalf("expected miss for unknown identity")
	}
}

func TestTranslationCacheLoadFailure(t *testing.T) {
	store := &fakeStore{loadErr: errors.New("disk gone")}
	cache := NewTranslationCache(store, time.Second, zap.NewNop())

	if err := cache.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestTranslationCacheFlushWritesOnlyWhenDirty(t *testing.T) {
	store := &fakeStore{}
	cache := NewTranslationCache(store, time.Second, zap.NewNop())
	ctx := context.Background()

	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if store.saveCount() != 0 {
		t.Fatalf("clean cache must not be written")
	}

	cache.Store("id", woodTriple)
	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	cache.Store("id", woodTriple)
	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if store.saveCount() != 1 {
		t.Fatalf("expected one save, got %d", store.saveCount())
	}
	if store.data["id"] != woodTriple {
		t.Fatalf("store did not receive the triple: %#v", store.data)
	}
}

func TestTranslationCacheFlushAsyncCoalesces(t *testing.T) {
	store := &fakeStore{}
	cache := NewTranslationCache(store, 30*time.Millisecond, zap.NewNop())

	for i := 0; i < 20; i++ {
		cache.Store(CacheIdentity(string(rune('a'+i))), woodTriple)
		cache.FlushAsync()
	}

	waitFor(t, time.Second, func() bool { return store.saveCount() > 0 })
	time.Sleep(60 * time.Millisecond)

	if store.saveCount() != 1 {
		t.Fatalf("expected a single coalesced save, got %d", store.saveCount())
	}
	if len(store.data) != 20 {
		t.Fatalf("expected 20 entries persisted, got %d", len(store.data))
	}
}

func TestTranslationCacheFailedFlushStaysDirty(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("read-only filesystem")}
	cache := NewTranslationCache(store, time.Second, zap.NewNop())
	ctx := context.Background()

	cache.Store("id", woodTriple)
	if err := cache.Flush(ctx); err == nil {
		t.Fatalf("expected flush error")
	}

	store.mu.Lock()
	store.saveErr = nil
	store.mu.Unlock()

	if err := cache.Flush(ctx); err != nil {
		t.Fatalf("retry flush failed: %v", err)
	}
	if store.saveCount() != 2 {
		t.Fatalf("expected the retry to write, got %d saves", store.saveCount())
	}
}

func TestTranslationCacheCloseFlushesPending(t *testing.T) {
	store := &fakeStore{}
	cache := NewTranslationCache(store, time.Hour, zap.NewNop())

	cache.Store("id", woodTriple)
	cache.FlushAsync()

	if err := cache.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if store.saveCount() != 1 {
		t.Fatalf("expected close to flush, got %d saves", store.saveCount())
	}

	cache.Store("other", woodTriple)
	cache.FlushAsync()
	time.Sleep(20 * time.Millisecond)
	if store.saveCount() != 1 {
		t.Fatalf("closed cache must not schedule flushes")
	}
}

func TestTranslationCacheWithoutStore(t *testing.T) {
	cache := NewTranslationCache(nil, time.Millisecond, nil)
	cache.Store("id", woodTriple)
	cache.FlushAsync()

	if err := cache.Close(context.Background()); err != nil {
		t.Fatalf("memory-only cache close failed: %v", err)
	}
	if cache.Len() != 1 {
		t.Fatalf("expected entry kept in memory")
	}
	if snap := cache.Snapshot(); snap["id"] != woodTriple {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
}
