package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Coordinate addresses an item in the item database at load time.
// ItemNo may change when optional content packages are added or removed.
type Coordinate struct {
	GroupNo    int `json:"group" yaml:"group"`
	CategoryNo int `json:"category" yaml:"category"`
	ItemNo     int `json:"item" yaml:"item"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%d:%d:%d", c.GroupNo, c.CategoryNo, c.ItemNo)
}

// ParseCoordinate parses the "group:category:item" form produced by String.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("coordinate %q must have the form group:category:item", s)
	}

	var nums [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		nums[i] = n
	}
	return Coordinate{GroupNo: nums[0], CategoryNo: nums[1], ItemNo: nums[2]}, nil
}

// NameTriple holds the group, category and item names as currently displayed.
type NameTriple struct {
	GroupName    string `json:"group"`
	CategoryName string `json:"category"`
	ItemName     string `json:"item"`
}

// Composite joins the triple with "/" separators.
func (n NameTriple) Composite() string {
	return n.GroupName + "/" + n.CategoryName + "/" + n.ItemName
}

// Group is a top level node of the item tree with its categories.
type Group struct {
	No         int
	Name       string
	Categories map[int]string
}

// ItemRecord is the canonical database row of a single item. The raw fields are opaque
// and only used for developer search.
type ItemRecord struct {
	Name       string `yaml:"name"`
	ChildRoot  string `yaml:"child_root,omitempty"`
	BundlePath string `yaml:"bundle_path,omitempty"`
	FileName   string `yaml:"file_name,omitempty"`
	Manifest   string `yaml:"manifest,omitempty"`
}

// Provenance identifies the content package an item was loaded from.
type Provenance struct {
	PackageID string `yaml:"guid"`
	FileName  string `yaml:"file,omitempty"`
}
