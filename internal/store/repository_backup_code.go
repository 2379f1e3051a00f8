package store

import (
	"context"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

type backupCodeRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewBackupCodeRepository(db *DB, logger *logger.Logger) BackupCodeRepository {
	return &backupCodeRepository{db: db, logger: logger}
}

// ReplaceAll deletes every existing code and inserts the new hashes in one
// transaction. Every code issued before this call becomes invalid.
func (r *backupCodeRepository) ReplaceAll(ctx context.Context, codeHashes []string) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.ReplaceAll").
			Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin backup code transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteAllBackupCodes); err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.ReplaceAll").
			Msg("failed to delete existing backup codes")
		return fmt.Errorf("failed to delete existing backup codes: %w", err)
	}

	for _, hash := range codeHashes {
		if _, err = tx.ExecContext(ctx, insertBackupCode, hash); err != nil {
			log.Err(err).
				Str("func", "backupCodeRepository.ReplaceAll").
				Msg("failed to insert backup code")
			return fmt.Errorf("failed to insert backup code: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.ReplaceAll").
			Msg("failed to commit backup code transaction")
		return fmt.Errorf("failed to commit backup code transaction: %w", err)
	}

	return nil
}

func (r *backupCodeRepository) FindUnused(ctx context.Context) ([]models.BackupCode, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, getUnusedBackupCodes)
	if err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.FindUnused").
			Msg("failed to query unused backup codes")
		return nil, fmt.Errorf("failed to query unused backup codes: %w", err)
	}
	defer rows.Close()

	var codes []models.BackupCode
	for rows.Next() {
		var code models.BackupCode
		if scanErr := rows.Scan(&code.ID, &code.CodeHash, &code.Used); scanErr != nil {
			log.Err(scanErr).
				Str("func", "backupCodeRepository.FindUnused").
				Msg("failed to scan backup code row")
			return nil, fmt.Errorf("failed to scan backup code row: %w", scanErr)
		}
		codes = append(codes, code)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "backupCodeRepository.FindUnused").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating backup code rows: %w", rowsErr)
	}

	return codes, nil
}

func (r *backupCodeRepository) MarkUsed(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	if _, err := r.db.ExecContext(ctx, markBackupCodeUsed, id); err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.MarkUsed").
			Int64("id", id).
			Msg("failed to mark backup code used")
		return fmt.Errorf("failed to mark backup code used (id=%d): %w", id, err)
	}

	return nil
}

func (r *backupCodeRepository) CountUnused(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var count int
	if err := r.db.QueryRowContext(ctx, countUnusedBackupCodes).Scan(&count); err != nil {
		log.Err(err).
			Str("func", "backupCodeRepository.CountUnused").
			Msg("failed to count unused backup codes")
		return 0, fmt.Errorf("failed to count unused backup codes: %w", err)
	}

	return count, nil
}
