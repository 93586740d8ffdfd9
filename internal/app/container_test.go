package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/config"
	"github.com/kapu/quickaccess-catalog-go/internal/domain"
)

const items = `
schema: kk
groups:
  - no: 1
    name: 椅子
    categories:
      - no: 2
        name: 木製
        items:
          - no: 30
            name: 肘掛け椅子
            file_name: p_armchair
      - no: 3
        name: 金属
        items: []
  - no: 11
    name: 効果音
    categories:
      - no: 0
        name: 天気
        items:
          - no: 5
            name: 雨
`

const dictionary = `msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid "椅子"
msgstr "Chair"

msgid "木製"
msgstr "Wooden"
`

const provenanceTable = `
items:
  - {group: 1, category: 2, item: 30, guid: com.example.chairs, file: chairs.zipmod}
`

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	itemsPath := filepath.Join(dir, "items.yaml")
	poDir := filepath.Join(dir, "po")
	provPath := filepath.Join(dir, "provenance.yaml")

	require.NoError(t, os.WriteFile(itemsPath, []byte(items), 0o644))
	require.NoError(t, os.MkdirAll(poDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(poDir, "en.po"), []byte(dictionary), 0o644))
	require.NoError(t, os.WriteFile(provPath, []byte(provenanceTable), 0o644))

	return &config.Config{
		ItemDB:      config.ItemDBConfig{Source: "file", Path: itemsPath},
		Translation: config.TranslationConfig{GettextDir: poDir, Locale: "en", AsyncProvider: "none", MaxConcurrent: 1},
		Cache:       config.CacheConfig{Backend: "file", FilePath: filepath.Join(dir, "cache", "translations.json")},
		Provenance:  config.ProvenanceConfig{File: provPath},
	}
}

func TestBuildLoadsCatalogAndPersistsTranslations(t *testing.T) {
	cfg := testConfig(t)

	container, err := Build(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, container.Index.Len())
	assert.Equal(t, 0, container.Skipped())
	assert.Nil(t, container.AI)
	assert.Nil(t, container.Studio)

	results := container.Index.Search("chair wooden", 0)
	require.Len(t, results, 1)
	assert.Equal(t, "Chair/Wooden/肘掛け椅子", results[0].FullName())
	assert.True(t, results[0].Matches([]string{"木製"}), "original names stay searchable")

	prov, ok := results[0].Provenance()
	require.True(t, ok)
	assert.Equal(t, "chairs.zipmod", prov.FileName)

	container.Index.SetDeveloperSearch(true)
	assert.Len(t, container.Index.Search("com.example.chairs", 0), 1)

	rain, err := container.Index.Get(domain.Coordinate{GroupNo: 11, CategoryNo: 0, ItemNo: 5})
	require.NoError(t, err)
	assert.True(t, rain.IsSFX())

	require.NoError(t, container.Close(context.Background()))

	data, err := os.ReadFile(cfg.Cache.FilePath)
	require.NoError(t, err)
	var cached map[string]domain.NameTriple
	require.NoError(t, json.Unmarshal(data, &cached))
	assert.Equal(t, domain.NameTriple{GroupName: "Chair", CategoryName: "Wooden", ItemName: "肘掛け椅子"},
		cached["00000001-00000002-肘掛け椅子"])
	assert.Len(t, cached, 1, "untranslated entries are not cached")
}

func TestBuildFailsOnMissingDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.ItemDB.Path = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Build(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildRejectsNilArguments(t *testing.T) {
	_, err := Build(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)

	_, err = Build(context.Background(), testConfig(t), nil)
	assert.Error(t, err)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", languageName("en_US"))
	assert.Equal(t, "French", languageName("fr"))
	assert.Equal(t, "English", languageName("???"))
}
