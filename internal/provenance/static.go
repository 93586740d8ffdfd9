// Package provenance maps item coordinates to the content package (zipmod) that added them.
package provenance

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

type record struct {
	domain.Coordinate `yaml:",inline"`
	domain.Provenance `yaml:",inline"`
}

type document struct {
	Items []record `yaml:"items"`
}

// Static is a fixed coordinate to provenance table.
type Static struct {
	mu      sync.RWMutex
	entries map[domain.Coordinate]domain.Provenance
}

func NewStatic() *Static {
	return &Static{entries: make(map[domain.Coordinate]domain.Provenance)}
}

// Add registers prov for coord. Items without a package id are stock content and are ignored.
func (s *Static) Add(coord domain.Coordinate, prov domain.Provenance) {
	if prov.PackageID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[coord] = prov
}

func (s *Static) Resolve(coord domain.Coordinate) (domain.Provenance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prov, ok := s.entries[coord]
	return prov, ok
}

func (s *Static) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Parse reads a provenance table of the form
//
//	items:
//	  - {group: 1, category: 2, item: 30, guid: com.example.chairs, file: chairs.zipmod}
func Parse(data []byte) (*Static, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse provenance table: %w", err)
	}

	s := NewStatic()
	for _, r := range doc.Items {
		s.Add(r.Coordinate, r.Provenance)
	}
	return s, nil
}

func LoadFile(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provenance table %s: %w", path, err)
	}
	return Parse(data)
}
