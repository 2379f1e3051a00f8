package store

import (
	"database/sql"

	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/migrations"
)

// DB wraps the shared *sql.DB handle together with the dialect it was opened
// with and a driver-specific error classificator.
type DB struct {
	*sql.DB
	dialect  string
	classify ErrorClassificator
	logger   *logger.Logger
}

// Migrate applies all pending schema migrations for this database's dialect.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, db.dialect)
}
