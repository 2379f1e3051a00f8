package store

import (
	"context"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/logger"
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	Meta        MetaRepository
	Entries     EntryRepository
	Fields      FieldRepository
	History     HistoryRepository
	BackupCodes BackupCodeRepository

	db *DB
}

// NewRepositories connects to the configured backend, runs migrations and
// wires up the repositories.
func NewRepositories(ctx context.Context, cfg config.Database, log *logger.Logger) (*Repositories, error) {
	var (
		db  *DB
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err = NewConnectSQLite(ctx, cfg, log)
	case config.DriverPostgres:
		db, err = NewConnectPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return &Repositories{
		Meta:        NewMetaRepository(db, log),
		Entries:     NewEntryRepository(db, log),
		Fields:      NewFieldRepository(db, log),
		History:     NewHistoryRepository(db, log),
		BackupCodes: NewBackupCodeRepository(db, log),
		db:          db,
	}, nil
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.db.Close()
}
