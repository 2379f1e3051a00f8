package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akulikov/go-secret-vault/internal/config"
	"github.com/akulikov/go-secret-vault/internal/logger"
)

// NewConnectPostgres opens a PostgreSQL-backed vault store through the pgx
// stdlib driver. Used when the vault database lives on a server RDBMS
// instead of a local file.
func NewConnectPostgres(ctx context.Context, cfg config.Database, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error opening database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return nil, err
	}
	log.Debug().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return &DB{
		DB:       conn,
		dialect:  "pgx",
		classify: postgresErrorClassificator{},
		logger:   log,
	}, nil
}
