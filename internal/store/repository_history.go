package store

import (
	"context"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

// MaxHistory is how many password versions survive per entry.
const MaxHistory = 5

type historyRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewHistoryRepository(db *DB, logger *logger.Logger) HistoryRepository {
	return &historyRepository{db: db, logger: logger}
}

// Save inserts one history row and prunes rows beyond MaxHistory inside the
// same transaction, so the cap invariant holds even if the process dies
// between the two statements.
func (r *historyRepository) Save(ctx context.Context, entryID int64, valueEnc []byte, changedAt int64) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.Save").
			Int64("entry_id", entryID).
			Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, insertHistory, entryID, valueEnc, changedAt); err != nil {
		log.Err(err).
			Str("func", "historyRepository.Save").
			Int64("entry_id", entryID).
			Msg("failed to insert history row")
		return fmt.Errorf("failed to insert history row (entry_id=%d): %w", entryID, err)
	}

	if _, err = tx.ExecContext(ctx, pruneHistory, entryID, entryID, MaxHistory); err != nil {
		log.Err(err).
			Str("func", "historyRepository.Save").
			Int64("entry_id", entryID).
			Msg("failed to prune history rows")
		return fmt.Errorf("failed to prune history rows (entry_id=%d): %w", entryID, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "historyRepository.Save").
			Int64("entry_id", entryID).
			Msg("failed to commit history transaction")
		return fmt.Errorf("failed to commit history transaction: %w", err)
	}

	return nil
}

func (r *historyRepository) FindByEntry(ctx context.Context, entryID int64) ([]models.PasswordHistory, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, getHistoryByEntry, entryID)
	if err != nil {
		log.Err(err).
			Str("func", "historyRepository.FindByEntry").
			Int64("entry_id", entryID).
			Msg("failed to query history rows")
		return nil, fmt.Errorf("failed to query history rows (entry_id=%d): %w", entryID, err)
	}
	defer rows.Close()

	var items []models.PasswordHistory
	for rows.Next() {
		var item models.PasswordHistory
		if scanErr := rows.Scan(&item.ID, &item.EntryID, &item.ValueEnc, &item.ChangedAt); scanErr != nil {
			log.Err(scanErr).
				Str("func", "historyRepository.FindByEntry").
				Int64("entry_id", entryID).
				Msg("failed to scan history row")
			return nil, fmt.Errorf("failed to scan history row: %w", scanErr)
		}
		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "historyRepository.FindByEntry").
			Int64("entry_id", entryID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating history rows: %w", rowsErr)
	}

	return items, nil
}
