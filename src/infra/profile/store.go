package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/contre95/bandpass/src/music"
)

// FileStore keeps the equalizer profile as a pretty-printed JSON array of filters.
type FileStore struct {
	path string
}

// NewFileStore creates a profile store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the profile. A missing file yields an empty profile and no error.
func (s *FileStore) Load(ctx context.Context) (*music.Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No equalizer profile on disk", "path", s.path)
		return &music.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", s.path, err)
	}

	var filters []music.EQFilter
	if err := json.Unmarshal(data, &filters); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", s.path, err)
	}
	return &music.Profile{Filters: filters}, nil
}

// Save writes the whole profile, replacing the file atomically.
func (s *FileStore) Save(ctx context.Context, profile *music.Profile) error {
	filters := profile.Filters
	if filters == nil {
		filters = []music.EQFilter{}
	}
	data, err := json.MarshalIndent(filters, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace profile: %w", err)
	}
	slog.Debug("Equalizer profile written", "path", s.path, "filters", len(filters))
	return nil
}
