package translation

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const poDomain = "items"

// GettextTranslator looks names up in a .po dictionary. It answers synchronously.
type GettextTranslator struct {
	locale *gotext.Locale
	tag    language.Tag
}

// NewGettextTranslator loads the .po file in dir that best matches locale, for example
// "en" matches "en_US.po".
func NewGettextTranslator(dir, locale string, logger *zap.Logger) (*GettextTranslator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newGettextTranslatorFS(os.DirFS(dir), locale, logger)
}

func newGettextTranslatorFS(fsys fs.FS, locale string, logger *zap.Logger) (*GettextTranslator, error) {
	want, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return nil, fmt.Errorf("invalid translation locale %q: %w", locale, err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read translation directory: %w", err)
	}

	var (
		tags  []language.Tag
		files []string
	)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".po") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".po")
		tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
		if err != nil {
			logger.Warn("Skipping invalid locale file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		tags = append(tags, tag)
		files = append(files, entry.Name())
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("no .po files found for locale %s", want)
	}

	_, idx, confidence := language.NewMatcher(tags).Match(want)
	if confidence == language.No {
		return nil, fmt.Errorf("no .po file matches locale %s", want)
	}

	po := gotext.NewPoFS(fsys)
	po.ParseFile(path.Clean(files[idx]))

	loc := gotext.NewLocale("", tags[idx].String())
	loc.AddTranslator(poDomain, po)

	logger.Info("Loaded item name dictionary",
		zap.String("locale", tags[idx].String()),
		zap.String("file", files[idx]),
	)
	return &GettextTranslator{locale: loc, tag: tags[idx]}, nil
}

func (g *GettextTranslator) Locale() language.Tag {
	return g.tag
}

func (g *GettextTranslator) TryTranslate(text string) (string, bool) {
	if text == "" || !g.locale.IsTranslatedD(poDomain, text) {
		return "", false
	}
	translated := g.locale.GetD(poDomain, text)
	if translated == "" || translated == text {
		return "", false
	}
	return translated, true
}
