package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/internal/itemdb"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
	"go.uber.org/zap"
)

// searchSeparator separates terms inside a search string. It cannot appear in a query
// because queries are split on whitespace.
const searchSeparator = "\v"

// EntryState tracks whether an entry finished its initial name fill.
type EntryState int32

const (
	StateConstructing EntryState = iota
	StateReady
)

func (s EntryState) String() string {
	if s == StateReady {
		return "READY"
	}
	return "CONSTRUCTING"
}

// Materializer spawns an item into the host scene.
type Materializer interface {
	AddItem(ctx context.Context, coord domain.Coordinate) error
}

// ProvenanceResolver reports which content package an item came from, if any.
type ProvenanceResolver interface {
	Resolve(coord domain.Coordinate) (domain.Provenance, bool)
}

// SearchSettings holds search options shared by all entries of an index.
type SearchSettings struct {
	developer atomic.Bool
}

func NewSearchSettings(developerSearch bool) *SearchSettings {
	s := &SearchSettings{}
	s.developer.Store(developerSearch)
	return s
}

func (s *SearchSettings) DeveloperSearch() bool {
	return s != nil && s.developer.Load()
}

func (s *SearchSettings) SetDeveloperSearch(enabled bool) {
	s.developer.Store(enabled)
}

// EntryDeps carries the collaborators every entry is built with. Only Database is required.
type EntryDeps struct {
	Database   itemdb.Database
	Overlay    *Overlay
	Cache      *TranslationCache
	Provenance ProvenanceResolver
	Host       Materializer
	Search     *SearchSettings
	Logger     *zap.Logger
}

type slotIndex int

const (
	slotGroup slotIndex = iota
	slotCategory
	slotItem
	slotCount
)

// nameSlot is one name of the triple. The first delivery fills it, later deliveries replace it.
type nameSlot struct {
	value  string
	filled bool
}

func (s *nameSlot) set(value string) bool {
	changed := !s.filled || s.value != value
	s.value = value
	s.filled = true
	return changed
}

// Entry is one placeable item of the catalog.
//
// The original composite name is fixed at construction and is the entry's identity:
// two entries are equal when their untranslated names match, whatever they display now.
type Entry struct {
	coord           domain.Coordinate
	cacheID         CacheIdentity
	original        domain.NameTriple
	originalName    string
	developerSearch string
	provenance      *domain.Provenance
	sfx             bool

	cache    *TranslationCache
	host     Materializer
	settings *SearchSettings
	logger   *zap.Logger

	mu           sync.RWMutex
	state        EntryState
	slots        [slotCount]nameSlot
	fullName     string
	searchString string
}

// NewEntry builds the entry at coord. When record is nil it is read from the database.
// An unknown group, category or item yields *errors.InvalidCoordinateError and no entry.
func NewEntry(coord domain.Coordinate, record *domain.ItemRecord, deps *EntryDeps) (*Entry, error) {
	if deps == nil || deps.Database == nil {
		return nil, fmt.Errorf("entry dependencies must include an item database")
	}
	db := deps.Database

	group, ok := db.Group(coord.GroupNo)
	if !ok {
		return nil, errors.NewInvalidCoordinateError("group", coord.GroupNo, coord.CategoryNo, coord.ItemNo)
	}
	categoryName, ok := group.Categories[coord.CategoryNo]
	if !ok {
		return nil, errors.NewInvalidCoordinateError("category", coord.GroupNo, coord.CategoryNo, coord.ItemNo)
	}
	if record == nil {
		found, ok := db.Item(coord)
		if !ok {
			return nil, errors.NewInvalidCoordinateError("item", coord.GroupNo, coord.CategoryNo, coord.ItemNo)
		}
		record = &found
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	overlay := deps.Overlay
	if overlay == nil {
		overlay = Passthrough()
	}

	original := domain.NameTriple{
		GroupName:    group.Name,
		CategoryName: categoryName,
		ItemName:     record.Name,
	}

	e := &Entry{
		coord:        coord,
		cacheID:      DeriveCacheIdentity(coord.GroupNo, coord.CategoryNo, record.Name),
		original:     original,
		originalName: original.Composite(),
		cache:        deps.Cache,
		host:         deps.Host,
		settings:     deps.Search,
		logger:       logger,
		state:        StateConstructing,
	}

	schema := db.Schema()
	if schema != nil {
		e.sfx = schema.IsSFX(coord.GroupNo)
	}
	if deps.Provenance != nil {
		if prov, ok := deps.Provenance.Resolve(coord); ok && prov.PackageID != "" {
			e.provenance = &prov
		}
	}
	e.developerSearch = buildDeveloperSearch(schema, *record, coord, e.provenance)

	cached, fromCache := e.lookupCache()
	if fromCache {
		e.deliver(slotGroup, cached.GroupName)
		e.deliver(slotCategory, cached.CategoryName)
		e.deliver(slotItem, cached.ItemName)
	} else {
		overlay.Resolve(original.GroupName, func(s string) { e.deliver(slotGroup, s) })
		overlay.Resolve(original.CategoryName, func(s string) { e.deliver(slotCategory, s) })
		overlay.Resolve(original.ItemName, func(s string) { e.deliver(slotItem, s) })
	}

	e.finishConstruction(fromCache)
	return e, nil
}

func buildDeveloperSearch(schema itemdb.Schema, record domain.ItemRecord, coord domain.Coordinate, prov *domain.Provenance) string {
	var fields []string
	if schema != nil {
		fields = append(fields, schema.DeveloperFields(record)...)
	} else {
		fields = append(fields, record.BundlePath, record.FileName, record.Manifest)
	}
	fields = append(fields,
		strconv.Itoa(coord.GroupNo),
		strconv.Itoa(coord.CategoryNo),
		strconv.Itoa(coord.ItemNo),
	)
	if prov != nil {
		fields = append(fields, prov.PackageID)
		if prov.FileName != "" {
			fields = append(fields, prov.FileName)
		}
	}
	return strings.Join(fields, searchSeparator)
}

func (e *Entry) lookupCache() (domain.NameTriple, bool) {
	if e.cache == nil {
		return domain.NameTriple{}, false
	}
	return e.cache.Lookup(e.cacheID)
}

// deliver writes one name slot. Once the entry is ready every change recomposes the
// derived strings and is written back to the translation cache.
func (e *Entry) deliver(slot slotIndex, value string) {
	e.mu.Lock()
	changed := e.slots[slot].set(value)
	if e.state != StateReady || !changed {
		e.mu.Unlock()
		return
	}
	e.recomposeLocked()
	fullName := e.fullName
	// The cache write stays under e.mu so a slower delivery cannot store an older triple.
	stored := e.storeLocked()
	e.mu.Unlock()

	e.logger.Debug("Catalog entry name updated",
		zap.String("cache_id", e.cacheID.String()),
		zap.String("full_name", fullName),
	)
	if stored {
		e.cache.FlushAsync()
	}
}

// finishConstruction is the join point of the three initial slot deliveries.
// Names that came from the cache are not written back.
func (e *Entry) finishConstruction(fromCache bool) {
	e.mu.Lock()
	for i := range e.slots {
		if !e.slots[i].filled {
			// Overlay.Resolve always delivers before returning; an empty slot is a bug in a caller.
			e.slots[i].set(e.originalSlot(slotIndex(i)))
		}
	}
	e.recomposeLocked()
	e.state = StateReady
	stored := false
	if !fromCache && e.namesLocked() != e.original {
		stored = e.storeLocked()
	}
	e.mu.Unlock()

	if stored {
		e.cache.FlushAsync()
	}
}

func (e *Entry) originalSlot(slot slotIndex) string {
	switch slot {
	case slotGroup:
		return e.original.GroupName
	case slotCategory:
		return e.original.CategoryName
	default:
		return e.original.ItemName
	}
}

// storeLocked writes the current names to the cache. e.mu must be held; the cache
// never calls back into an entry.
func (e *Entry) storeLocked() bool {
	if e.cache == nil {
		return false
	}
	return e.cache.Store(e.cacheID, e.namesLocked())
}

func (e *Entry) namesLocked() domain.NameTriple {
	return domain.NameTriple{
		GroupName:    e.slots[slotGroup].value,
		CategoryName: e.slots[slotCategory].value,
		ItemName:     e.slots[slotItem].value,
	}
}

// recomposeLocked rebuilds FullName and SearchString from the current names. e.mu must be held.
func (e *Entry) recomposeLocked() {
	e.fullName = e.namesLocked().Composite()

	var b strings.Builder
	b.WriteString(e.fullName)
	if !strings.EqualFold(e.originalName, e.fullName) {
		b.WriteString(searchSeparator)
		b.WriteString(e.originalName)
	}
	if e.settings.DeveloperSearch() && e.developerSearch != "" {
		b.WriteString(searchSeparator)
		b.WriteString(e.developerSearch)
	}
	e.searchString = strings.ToLower(b.String())
}

// Recompose rebuilds the derived strings, for instance after the developer search flag changed.
func (e *Entry) Recompose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recomposeLocked()
}

// Spawn asks the host to materialize the item. Host failures, panics included, are logged
// and reported as false so that a batch can carry on.
func (e *Entry) Spawn(ctx context.Context) (ok bool) {
	if e.host == nil {
		e.logger.Warn("No studio host configured, cannot spawn item", zap.String("coordinate", e.coord.String()))
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Studio host panicked while spawning item",
				zap.String("coordinate", e.coord.String()),
				zap.String("item", e.FullName()),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	if err := e.host.AddItem(ctx, e.coord); err != nil {
		e.logger.Warn("Failed to spawn item",
			zap.String("coordinate", e.coord.String()),
			zap.String("item", e.FullName()),
			zap.Error(err),
		)
		return false
	}
	return true
}

// Matches reports whether every lowercase term occurs in the search string.
func (e *Entry) Matches(terms []string) bool {
	search := e.SearchString()
	for _, term := range terms {
		if !strings.Contains(search, term) {
			return false
		}
	}
	return true
}

func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.originalName == other.originalName
}

// Key is the untranslated composite name used for equality.
func (e *Entry) Key() string {
	return e.originalName
}

func (e *Entry) Hash() uint64 {
	return xxhash.Sum64String(e.originalName)
}

func (e *Entry) Coordinate() domain.Coordinate { return e.coord }
func (e *Entry) GroupNo() int                  { return e.coord.GroupNo }
func (e *Entry) CategoryNo() int               { return e.coord.CategoryNo }
func (e *Entry) ItemNo() int                   { return e.coord.ItemNo }
func (e *Entry) CacheID() CacheIdentity        { return e.cacheID }
func (e *Entry) OriginalName() string          { return e.originalName }
func (e *Entry) OriginalNames() domain.NameTriple {
	return e.original
}

// IsSFX reports whether the item is a sound effect.
func (e *Entry) IsSFX() bool { return e.sfx }

// Provenance returns the content package the item came from.
func (e *Entry) Provenance() (domain.Provenance, bool) {
	if e.provenance == nil {
		return domain.Provenance{}, false
	}
	return *e.provenance, true
}

func (e *Entry) DeveloperSearchString() string { return e.developerSearch }

func (e *Entry) State() EntryState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Entry) Names() domain.NameTriple {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.namesLocked()
}

func (e *Entry) GroupName() string    { return e.Names().GroupName }
func (e *Entry) CategoryName() string { return e.Names().CategoryName }
func (e *Entry) ItemName() string     { return e.Names().ItemName }

func (e *Entry) FullName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fullName
}

func (e *Entry) SearchString() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.searchString
}
