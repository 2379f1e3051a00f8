package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// ErrorClassificator maps driver-specific errors onto store-level meaning so
// repositories stay dialect-agnostic.
type ErrorClassificator interface {
	IsUniqueViolation(err error) bool
}

type postgresErrorClassificator struct{}

func (postgresErrorClassificator) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

type sqliteErrorClassificator struct{}

func (sqliteErrorClassificator) IsUniqueViolation(err error) bool {
	var sErr sqlite3.Error
	return errors.As(err, &sErr) &&
		(sErr.ExtendedCode == sqlite3.ErrConstraintUnique || sErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}
