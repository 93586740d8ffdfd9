package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/internal/itemdb"
)

type fakeSync struct {
	translations map[string]string
	panics       bool
}

func (f *fakeSync) TryTranslate(text string) (string, bool) {
	if f.panics {
		panic("dictionary corrupted")
	}
	translated, ok := f.translations[text]
	return translated, ok
}

// fakeAsync records requests; tests deliver them by hand to control timing.
type fakeAsync struct {
	mu       sync.Mutex
	requests map[string][]func(string)
	panics   bool
}

func newFakeAsync() *fakeAsync {
	return &fakeAsync{requests: make(map[string][]func(string))}
}

func (f *fakeAsync) TranslateAsync(text string, deliver func(string)) {
	if f.panics {
		panic("translator offline")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[text] = append(f.requests[text], deliver)
}

func (f *fakeAsync) complete(text, translated string) int {
	f.mu.Lock()
	pending := f.requests[text]
	delete(f.requests, text)
	f.mu.Unlock()

	for _, deliver := range pending {
		deliver(translated)
	}
	return len(pending)
}

func (f *fakeAsync) pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, reqs := range f.requests {
		n += len(reqs)
	}
	return n
}

// inlineAsync answers inside TranslateAsync, the way a memoised translator does.
type inlineAsync map[string]string

func (f inlineAsync) TranslateAsync(text string, deliver func(string)) {
	if translated, ok := f[text]; ok {
		deliver(translated)
	}
}

type fakeHost struct {
	mu      sync.Mutex
	spawned []domain.Coordinate
	failOn  map[domain.Coordinate]error
	panicOn map[domain.Coordinate]bool
}

func (h *fakeHost) AddItem(_ context.Context, coord domain.Coordinate) error {
	if h.panicOn[coord] {
		panic("nil reference in UpdateColor")
	}
	if err := h.failOn[coord]; err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.spawned = append(h.spawned, coord)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]domain.NameTriple
	saves   int
	saveErr error
	loadErr error
}

func (s *fakeStore) Name() string { return "fake" }

func (s *fakeStore) Load(_ context.Context) (map[string]domain.NameTriple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	out := make(map[string]domain.NameTriple, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, entries map[string]domain.NameTriple) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = entries
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeProvenance map[domain.Coordinate]domain.Provenance

func (f fakeProvenance) Resolve(coord domain.Coordinate) (domain.Provenance, bool) {
	p, ok := f[coord]
	return p, ok
}

var (
	chairCoord = domain.Coordinate{GroupNo: 1, CategoryNo: 2, ItemNo: 30}
	stoolCoord = domain.Coordinate{GroupNo: 1, CategoryNo: 2, ItemNo: 31}
	rainCoord  = domain.Coordinate{GroupNo: 11, CategoryNo: 0, ItemNo: 5}
)

// newTestDatabase returns a Koikatsu style database with a furniture group and an sfx group.
func newTestDatabase() *itemdb.Memory {
	db := itemdb.NewMemory(itemdb.KoikatsuSchema{})
	db.AddGroup(1, "Chair")
	db.AddCategory(1, 2, "Wood")
	db.AddItem(chairCoord, domain.ItemRecord{
		Name:       "Armchair",
		ChildRoot:  "root_chair",
		BundlePath: "studio/furniture.unity3d",
		FileName:   "p_armchair",
		Manifest:   "abdata",
	})
	db.AddItem(stoolCoord, domain.ItemRecord{Name: "Stool"})

	db.AddGroup(11, "SFX")
	db.AddCategory(11, 0, "Weather")
	db.AddItem(rainCoord, domain.ItemRecord{Name: "Rain"})
	return db
}

func mustEntry(coord domain.Coordinate, deps *EntryDeps) *Entry {
	entry, err := NewEntry(coord, nil, deps)
	if err != nil {
		panic(fmt.Sprintf("unexpected entry error: %v", err))
	}
	return entry
}
