package itemdb

import (
	"sort"
	"sync"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

// Database is the read side of an item database.
type Database interface {
	Group(groupNo int) (domain.Group, bool)
	Item(coord domain.Coordinate) (domain.ItemRecord, bool)
	// Coordinates lists every item in stable group, category, item order.
	Coordinates() []domain.Coordinate
	Schema() Schema
}

// Memory is a Database held in maps. The file and Postgres loaders fill one.
type Memory struct {
	schema Schema

	mu     sync.RWMutex
	groups map[int]domain.Group
	items  map[domain.Coordinate]domain.ItemRecord
}

func NewMemory(schema Schema) *Memory {
	if schema == nil {
		schema = KoikatsuSchema{}
	}
	return &Memory{
		schema: schema,
		groups: make(map[int]domain.Group),
		items:  make(map[domain.Coordinate]domain.ItemRecord),
	}
}

func (m *Memory) AddGroup(groupNo int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupNo]
	if !ok {
		group = domain.Group{No: groupNo, Categories: make(map[int]string)}
	}
	group.Name = name
	m.groups[groupNo] = group
}

// AddCategory registers a category, creating an unnamed group when needed.
func (m *Memory) AddCategory(groupNo, categoryNo int, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	group, ok := m.groups[groupNo]
	if !ok {
		group = domain.Group{No: groupNo, Categories: make(map[int]string)}
	}
	group.Categories[categoryNo] = name
	m.groups[groupNo] = group
}

// AddItem stores a record. Items may reference unknown groups or categories; such
// coordinates fail later when the catalog builds them.
func (m *Memory) AddItem(coord domain.Coordinate, record domain.ItemRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[coord] = record
}

// Groups returns every group ordered by number. Category maps are copies.
func (m *Memory) Groups() []domain.Group {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]domain.Group, 0, len(m.groups))
	for _, g := range m.groups {
		categories := make(map[int]string, len(g.Categories))
		for no, name := range g.Categories {
			categories[no] = name
		}
		groups = append(groups, domain.Group{No: g.No, Name: g.Name, Categories: categories})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].No < groups[j].No })
	return groups
}

func (m *Memory) Group(groupNo int) (domain.Group, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	group, ok := m.groups[groupNo]
	if !ok {
		return domain.Group{}, false
	}
	categories := make(map[int]string, len(group.Categories))
	for no, name := range group.Categories {
		categories[no] = name
	}
	return domain.Group{No: group.No, Name: group.Name, Categories: categories}, true
}

func (m *Memory) Item(coord domain.Coordinate) (domain.ItemRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.items[coord]
	return record, ok
}

func (m *Memory) Coordinates() []domain.Coordinate {
	m.mu.RLock()
	coords := make([]domain.Coordinate, 0, len(m.items))
	for coord := range m.items {
		coords = append(coords, coord)
	}
	m.mu.RUnlock()

	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.GroupNo != b.GroupNo {
			return a.GroupNo < b.GroupNo
		}
		if a.CategoryNo != b.CategoryNo {
			return a.CategoryNo < b.CategoryNo
		}
		return a.ItemNo < b.ItemNo
	})
	return coords
}

func (m *Memory) Schema() Schema {
	return m.schema
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
