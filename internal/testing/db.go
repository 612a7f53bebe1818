// Package testing provides testing utilities and helpers for the freightwatch project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/freightwatch/internal/database"
)

// NewTestDB creates a file-backed SQLite database in the test's temp dir and applies
// the embedded schema for name (e.g. "client_data"). Unknown names get an empty database.
// The database is closed when the test ends.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})
	return db
}
