package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/internal/util"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

const defaultLoadWorkers = 8

// Index owns the catalog entries built from an item database.
type Index struct {
	deps    EntryDeps
	workers int
	logger  *zap.Logger

	mu      sync.RWMutex
	entries []*Entry
	byCoord map[domain.Coordinate]*Entry
}

type buildResult struct {
	entry *Entry
	err   error
}

func NewIndex(deps EntryDeps, workers int) (*Index, error) {
	if deps.Database == nil {
		return nil, fmt.Errorf("item database must not be nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Search == nil {
		deps.Search = NewSearchSettings(false)
	}
	if workers <= 0 {
		workers = defaultLoadWorkers
	}

	return &Index{
		deps:    deps,
		workers: workers,
		logger:  deps.Logger,
		byCoord: make(map[domain.Coordinate]*Entry),
	}, nil
}

// Load builds an entry for every coordinate of the database. Invalid coordinates are
// logged and skipped. Load returns the number of skipped coordinates.
func (idx *Index) Load(ctx context.Context) (int, error) {
	coords := idx.deps.Database.Coordinates()
	results := make([]buildResult, len(coords))

	p := pool.New().WithMaxGoroutines(idx.workers)
	for i, coord := range coords {
		i, coord := i, coord
		p.Go(func() {
			if ctx.Err() != nil {
				results[i] = buildResult{err: ctx.Err()}
				return
			}
			entry, err := NewEntry(coord, nil, &idx.deps)
			results[i] = buildResult{entry: entry, err: err}
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("catalog load interrupted: %w", err)
	}

	entries := make([]*Entry, 0, len(coords))
	byCoord := make(map[domain.Coordinate]*Entry, len(coords))
	skipped := 0
	for i, result := range results {
		if result.err != nil {
			skipped++
			idx.logInvalid(coords[i], result.err)
			continue
		}
		entries = append(entries, result.entry)
		byCoord[coords[i]] = result.entry
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.byCoord = byCoord
	idx.mu.Unlock()

	schemaName := "unknown"
	if schema := idx.deps.Database.Schema(); schema != nil {
		schemaName = schema.Name()
	}
	idx.logger.Info("Catalog loaded",
		zap.Int("entries", len(entries)),
		zap.Int("skipped", skipped),
		zap.String("schema", schemaName),
	)
	return skipped, nil
}

func (idx *Index) logInvalid(coord domain.Coordinate, err error) {
	var invalid *errors.InvalidCoordinateError
	if stderrors.As(err, &invalid) {
		idx.logger.Warn("Skipping item with invalid coordinate",
			zap.String("coordinate", coord.String()),
			zap.String("field", invalid.Field),
		)
		return
	}
	idx.logger.Warn("Skipping item", zap.String("coordinate", coord.String()), zap.Error(err))
}

// Get returns the entry at coord, building it on first access.
func (idx *Index) Get(coord domain.Coordinate) (*Entry, error) {
	idx.mu.RLock()
	entry, ok := idx.byCoord[coord]
	idx.mu.RUnlock()
	if ok {
		return entry, nil
	}

	built, err := NewEntry(coord, nil, &idx.deps)
	if err != nil {
		return nil, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if existing, ok := idx.byCoord[coord]; ok {
		return existing, nil
	}
	idx.byCoord[coord] = built
	idx.entries = append(idx.entries, built)
	return built, nil
}

// Lookup returns an already built entry.
func (idx *Index) Lookup(coord domain.Coordinate) (*Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	entry, ok := idx.byCoord[coord]
	return entry, ok
}

func (idx *Index) Entries() []*Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]*Entry(nil), idx.entries...)
}

func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search returns entries whose search string holds every whitespace separated term of
// query, sorted by full name. Entries sharing an original name are reported once.
// A limit <= 0 returns every match.
func (idx *Index) Search(query string, limit int) []*Entry {
	terms := util.SplitTerms(query)
	if len(terms) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	matches := make([]*Entry, 0)
	for _, entry := range idx.Entries() {
		if !entry.Matches(terms) {
			continue
		}
		if _, dup := seen[entry.Key()]; dup {
			continue
		}
		seen[entry.Key()] = struct{}{}
		matches = append(matches, entry)
	}

	names := make(map[*Entry]string, len(matches))
	for _, entry := range matches {
		names[entry] = entry.FullName()
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return names[matches[i]] < names[matches[j]]
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// SetDeveloperSearch toggles developer fields in search strings and recomposes every entry.
func (idx *Index) SetDeveloperSearch(enabled bool) {
	if idx.deps.Search.DeveloperSearch() == enabled {
		return
	}
	idx.deps.Search.SetDeveloperSearch(enabled)
	for _, entry := range idx.Entries() {
		entry.Recompose()
	}
	idx.logger.Info("Developer search toggled", zap.Bool("enabled", enabled))
}

// SpawnAll materializes the entries at coords in order. Unknown coordinates and host
// failures are logged and skipped. It returns how many items were spawned.
func (idx *Index) SpawnAll(ctx context.Context, coords []domain.Coordinate) int {
	spawned := 0
	for _, coord := range coords {
		if ctx.Err() != nil {
			break
		}
		entry, err := idx.Get(coord)
		if err != nil {
			idx.logInvalid(coord, err)
			continue
		}
		if entry.Spawn(ctx) {
			spawned++
		}
	}
	return spawned
}
