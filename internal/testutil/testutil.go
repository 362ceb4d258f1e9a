// Package testutil provides shared test helpers for setting up diary
// stores and index databases.
package testutil

import (
	"log/slog"
	"os"
	"testing"

	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
	"github.com/chrisd/bautagebuch/internal/storage"
)

// QuietLogger returns a logger that only reports errors, keeping test
// output readable.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "bautagebuch-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a loaded diary store over a temporary data directory.
func TestStore(t *testing.T) (*diary.Store, string) {
	t.Helper()
	dataDir := t.TempDir()
	files, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	store := diary.NewStore(files, QuietLogger())
	store.Load()
	return store, dataDir
}
