package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedMigrations embed.FS

// Migrate applies all pending schema migrations for the given goose dialect
// ("sqlite3" or "pgx"). Each dialect has its own migration directory because
// the two engines disagree on autoincrement and binary column syntax.
func Migrate(db *sql.DB, dialect string) error {
	var dir string
	switch dialect {
	case "sqlite3":
		dir = "sqlite"
	case "pgx", "postgres":
		dialect, dir = "pgx", "postgres"
	default:
		return fmt.Errorf("migration error: unsupported dialect %q", dialect)
	}

	sub, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return fmt.Errorf("migration error reading embedded dir %q: %w", dir, err)
	}
	goose.SetBaseFS(sub)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
