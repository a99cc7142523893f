// Package settings persists the user-supplied sync settings to a local
// JSON cache. Saves are dispatched fire-and-forget by callers; the sync
// pipeline itself never blocks on them.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/iconsync/internal/apperr"
	"github.com/starford/iconsync/internal/models"
	"github.com/starford/iconsync/internal/storage"
)

// FileName is the settings cache file inside the data directory.
const FileName = "settings.json"

// Store is the settings cache abstraction.
type Store interface {
	// Load returns the cached settings, or nil when none are cached.
	Load() (*models.SyncSettings, error)
	// Save persists the settings.
	Save(*models.SyncSettings) error
}

// FileStore implements Store on top of the atomic data-directory FS.
type FileStore struct {
	fs *storage.FS
}

// NewFileStore creates a FileStore backed by the given data directory FS.
func NewFileStore(fs *storage.FS) *FileStore {
	return &FileStore{fs: fs}
}

// Load reads and decodes the cached settings. An absent file is not an
// error: it returns (nil, nil).
func (s *FileStore) Load() (*models.SyncSettings, error) {
	data, err := s.fs.Read(FileName)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var st models.SyncSettings
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("settings: decode cache: %w", err)
	}
	return &st, nil
}

// Save encodes and atomically writes the settings.
func (s *FileStore) Save(st *models.SyncSettings) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	return s.fs.Write(FileName, data)
}

// Verify FileStore satisfies Store at compile time.
var _ Store = (*FileStore)(nil)
