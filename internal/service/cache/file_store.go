package cache

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/kapu/quickaccess-catalog-go/internal/domain"
	"github.com/kapu/quickaccess-catalog-go/pkg/errors"
)

// FileStore keeps the translation map in a JSON file next to the game data.
// Writes go through a temporary file and a rename, so a crash never leaves half a file.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Name() string {
	return "file:" + s.path
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns an empty map when the file does not exist yet.
func (s *FileStore) Load(_ context.Context) (map[string]domain.NameTriple, error) {
	data, err := os.ReadFile(s.path)
	if stderrors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("Translation cache file not found, starting empty", zap.String("path", s.path))
		return map[string]domain.NameTriple{}, nil
	}
	if err != nil {
		return nil, errors.NewCacheError("failed to read cache file", "load", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]domain.NameTriple{}, nil
	}

	var entries map[string]domain.NameTriple
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewCacheError("failed to parse cache file", "load", s.path, err)
	}
	if entries == nil {
		entries = map[string]domain.NameTriple{}
	}
	return entries, nil
}

func (s *FileStore) Save(_ context.Context, entries map[string]domain.NameTriple) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errors.NewCacheError("marshal failed", "save", s.path, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewCacheError("failed to create cache directory", "save", dir, err)
		}
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return errors.NewCacheError("failed to write cache file", "save", s.path, err)
	}
	return nil
}
