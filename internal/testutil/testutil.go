// Package testutil provides shared test helpers for setting up data
// directories and run history databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/settings"
	"github.com/starford/iconsync/internal/storage"
)

// TestDB creates a temporary run history database that is automatically
// cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "iconsync-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDataDir creates a temporary data directory with a storage.FS over it.
func TestDataDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dataDir := t.TempDir()
	fs, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, fs
}

// TestStore creates a settings store backed by a temporary data directory.
func TestStore(t *testing.T) *settings.FileStore {
	t.Helper()
	_, fs := TestDataDir(t)
	return settings.NewFileStore(fs)
}
