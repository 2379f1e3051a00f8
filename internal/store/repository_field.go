package store

import (
	"context"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/logger"
)

type fieldRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewFieldRepository(db *DB, logger *logger.Logger) FieldRepository {
	return &fieldRepository{db: db, logger: logger}
}

func (r *fieldRepository) ReplaceFields(ctx context.Context, entryID int64, fields map[string][]byte) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "fieldRepository.ReplaceFields").
			Int64("entry_id", entryID).
			Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin field replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteEntryFields, entryID); err != nil {
		log.Err(err).
			Str("func", "fieldRepository.ReplaceFields").
			Int64("entry_id", entryID).
			Msg("failed to delete existing fields")
		return fmt.Errorf("failed to delete existing fields (entry_id=%d): %w", entryID, err)
	}

	if len(fields) > 0 {
		builder := qb.Insert("entry_fields").Columns("entry_id", "field_key", "value_enc")
		for key, blob := range fields {
			builder = builder.Values(entryID, key, blob)
		}
		query, args, buildErr := builder.ToSql()
		if buildErr != nil {
			return fmt.Errorf("failed to build field insert query: %w", buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			log.Err(err).
				Str("func", "fieldRepository.ReplaceFields").
				Int64("entry_id", entryID).
				Msg("failed to insert fields")
			return fmt.Errorf("failed to insert fields (entry_id=%d): %w", entryID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "fieldRepository.ReplaceFields").
			Int64("entry_id", entryID).
			Msg("failed to commit field replace transaction")
		return fmt.Errorf("failed to commit field replace transaction: %w", err)
	}

	return nil
}

func (r *fieldRepository) GetFields(ctx context.Context, entryID int64) (map[string][]byte, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, getEntryFields, entryID)
	if err != nil {
		log.Err(err).
			Str("func", "fieldRepository.GetFields").
			Int64("entry_id", entryID).
			Msg("failed to query entry fields")
		return nil, fmt.Errorf("failed to query entry fields (entry_id=%d): %w", entryID, err)
	}
	defer rows.Close()

	fields := make(map[string][]byte)
	for rows.Next() {
		var (
			key  string
			blob []byte
		)
		if scanErr := rows.Scan(&key, &blob); scanErr != nil {
			log.Err(scanErr).
				Str("func", "fieldRepository.GetFields").
				Int64("entry_id", entryID).
				Msg("failed to scan field row")
			return nil, fmt.Errorf("failed to scan field row: %w", scanErr)
		}
		fields[key] = blob
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "fieldRepository.GetFields").
			Int64("entry_id", entryID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating field rows: %w", rowsErr)
	}

	return fields, nil
}
