package itemdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

const sampleDatabase = `
schema: ai
groups:
  - no: 0
    name: 基本形
    categories:
      - no: 0
        name: 基本形
        items:
          - no: 1
            name: 球
            bundle_path: studio/base.unity3d
            file_name: p_sphere
            manifest: abdata
          - no: 2
            name: 立方体
  - no: 9
    name: 効果音
    categories:
      - no: 3
        name: 環境音
        items:
          - no: 7
            name: 雨
`

func TestParseBuildsGroupsCategoriesAndItems(t *testing.T) {
	db, err := Parse([]byte(sampleDatabase), nil)
	require.NoError(t, err)

	assert.Equal(t, "ai", db.Schema().Name())
	assert.Equal(t, 3, db.Len())

	group, ok := db.Group(0)
	require.True(t, ok)
	assert.Equal(t, "基本形", group.Name)
	assert.Equal(t, "基本形", group.Categories[0])

	item, ok := db.Item(domain.Coordinate{GroupNo: 0, CategoryNo: 0, ItemNo: 1})
	require.True(t, ok)
	assert.Equal(t, "球", item.Name)
	assert.Equal(t, "studio/base.unity3d", item.BundlePath)
	assert.Equal(t, "p_sphere", item.FileName)

	assert.True(t, db.Schema().IsSFX(9))
}

func TestParseSchemaOverride(t *testing.T) {
	db, err := Parse([]byte(sampleDatabase), KoikatsuSchema{})
	require.NoError(t, err)
	assert.Equal(t, "kk", db.Schema().Name())
}

func TestParseRejectsUnknownSchema(t *testing.T) {
	_, err := Parse([]byte("schema: pong\n"), nil)
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDatabase), 0o644))

	db, err := LoadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, db.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}

func TestCoordinatesAreOrdered(t *testing.T) {
	db := NewMemory(nil)
	db.AddItem(domain.Coordinate{GroupNo: 2, CategoryNo: 0, ItemNo: 0}, domain.ItemRecord{Name: "c"})
	db.AddItem(domain.Coordinate{GroupNo: 1, CategoryNo: 5, ItemNo: 3}, domain.ItemRecord{Name: "b"})
	db.AddItem(domain.Coordinate{GroupNo: 1, CategoryNo: 5, ItemNo: 1}, domain.ItemRecord{Name: "a"})

	assert.Equal(t, []domain.Coordinate{
		{GroupNo: 1, CategoryNo: 5, ItemNo: 1},
		{GroupNo: 1, CategoryNo: 5, ItemNo: 3},
		{GroupNo: 2, CategoryNo: 0, ItemNo: 0},
	}, db.Coordinates())
}

func TestSchemaDeveloperFields(t *testing.T) {
	record := domain.ItemRecord{Name: "x", ChildRoot: "root", BundlePath: "b", FileName: "f", Manifest: "m"}

	assert.Equal(t, []string{"root", "b", "f", "m"}, KoikatsuSchema{}.DeveloperFields(record))
	assert.Equal(t, []string{"b", "f", "m"}, AISchema{}.DeveloperFields(record))

	assert.True(t, KoikatsuSchema{}.IsSFX(11))
	assert.False(t, KoikatsuSchema{}.IsSFX(9))
	assert.True(t, AISchema{}.IsSFX(2171))
}

func TestSchemaByName(t *testing.T) {
	for name, want := range map[string]string{"": "kk", "KKS": "kk", "hs2": "ai", "ai": "ai"} {
		schema, err := SchemaByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, schema.Name(), name)
	}
}

func TestGroupsAreOrderedCopies(t *testing.T) {
	db, err := Parse([]byte(sampleDatabase), nil)
	require.NoError(t, err)

	groups := db.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, 0, groups[0].No)
	assert.Equal(t, 9, groups[1].No)
	assert.Equal(t, "環境音", groups[1].Categories[3])

	groups[1].Categories[3] = "changed"
	original, _ := db.Group(9)
	assert.Equal(t, "環境音", original.Categories[3])
}

func TestGroupReturnsCategoryCopy(t *testing.T) {
	db, err := Parse([]byte(sampleDatabase), nil)
	require.NoError(t, err)

	group, ok := db.Group(9)
	require.True(t, ok)
	group.Categories[3] = "changed"

	again, _ := db.Group(9)
	assert.Equal(t, "環境音", again.Categories[3])

	_, ok = db.Group(404)
	assert.False(t, ok)
}

func TestPostgresDSNDefaultsSSLMode(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "items"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=items sslmode=disable", cfg.dsn())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.dsn(), "sslmode=require")
}
