package itemdb

import (
	"fmt"
	"strings"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

// Schema captures what differs between item database variants of the supported games.
type Schema interface {
	Name() string
	// DeveloperFields returns the raw record fields folded into developer search, in order.
	DeveloperFields(record domain.ItemRecord) []string
	IsSFX(groupNo int) bool
}

// KoikatsuSchema covers Koikatsu and Koikatsu Sunshine databases, whose items carry a child root.
type KoikatsuSchema struct{}

func (KoikatsuSchema) Name() string { return "kk" }

func (KoikatsuSchema) DeveloperFields(r domain.ItemRecord) []string {
	return []string{r.ChildRoot, r.BundlePath, r.FileName, r.Manifest}
}

// stock 3d sfx
func (KoikatsuSchema) IsSFX(groupNo int) bool { return groupNo == 11 }

// AISchema covers AI-Shoujo and HoneySelect2 databases.
type AISchema struct{}

func (AISchema) Name() string { return "ai" }

func (AISchema) DeveloperFields(r domain.ItemRecord) []string {
	return []string{r.BundlePath, r.FileName, r.Manifest}
}

func (AISchema) IsSFX(groupNo int) bool {
	return groupNo == 9 || // stock 3d sfx
		groupNo == 2171 // dirty's 3dsfx
}

// SchemaByName selects a schema variant at startup.
func SchemaByName(name string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kk", "kks", "koikatsu", "":
		return KoikatsuSchema{}, nil
	case "ai", "hs2", "aishoujo", "honeyselect2":
		return AISchema{}, nil
	default:
		return nil, fmt.Errorf("unknown item database schema %q", name)
	}
}
