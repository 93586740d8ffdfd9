package itemdb

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

type fileDatabase struct {
	Schema string      `yaml:"schema"`
	Groups []fileGroup `yaml:"groups"`
}

type fileGroup struct {
	No         int            `yaml:"no"`
	Name       string         `yaml:"name"`
	Categories []fileCategory `yaml:"categories"`
}

type fileCategory struct {
	No    int        `yaml:"no"`
	Name  string     `yaml:"name"`
	Items []fileItem `yaml:"items"`
}

type fileItem struct {
	No                int `yaml:"no"`
	domain.ItemRecord `yaml:",inline"`
}

// LoadFile reads a YAML item database dump. schema overrides the schema named in the file
// when it is non-nil.
func LoadFile(path string, schema Schema) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item database %s: %w", path, err)
	}
	return Parse(data, schema)
}

// Parse decodes a YAML item database dump.
func Parse(data []byte, schema Schema) (*Memory, error) {
	var raw fileDatabase
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse item database: %w", err)
	}

	if schema == nil {
		named, err := SchemaByName(raw.Schema)
		if err != nil {
			return nil, err
		}
		schema = named
	}

	db := NewMemory(schema)
	for _, g := range raw.Groups {
		db.AddGroup(g.No, g.Name)
		for _, c := range g.Categories {
			db.AddCategory(g.No, c.No, c.Name)
			for _, item := range c.Items {
				db.AddItem(domain.Coordinate{GroupNo: g.No, CategoryNo: c.No, ItemNo: item.No}, item.ItemRecord)
			}
		}
	}
	return db, nil
}
