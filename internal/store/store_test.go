package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

// newTestDB opens a migrated in-memory SQLite database.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnectSQLite(context.Background(), config.Database{DSN: ":memory:"}, logger.Nop())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// newTestEntry inserts a minimal entry row and returns its id, for tests of
// tables that reference entries(id).
func newTestEntry(t *testing.T, db *DB) int64 {
	t.Helper()

	repo := NewEntryRepository(db, logger.Nop())
	id, err := repo.Create(context.Background(), models.Entry{
		UID:       uuid.NewString(),
		Type:      models.EntryTypeLogin,
		Title:     "example.com",
		CreatedAt: 1_700_000_000_000,
		UpdatedAt: 1_700_000_000_000,
	})
	if err != nil {
		t.Fatalf("create test entry: %v", err)
	}
	return id
}
