package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/akulikov/go-secret-vault/internal/logger"
)

type metaRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewMetaRepository(db *DB, logger *logger.Logger) MetaRepository {
	return &metaRepository{db: db, logger: logger}
}

func (m *metaRepository) Get(ctx context.Context, key string) (string, error) {
	log := logger.FromContext(ctx)

	var value string
	err := m.db.QueryRowContext(ctx, getMetaValue, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrMetaKeyNotFound, key)
	}
	if err != nil {
		log.Err(err).
			Str("func", "metaRepository.Get").
			Str("key", key).
			Msg("failed to query vault meta value")
		return "", fmt.Errorf("failed to query vault meta value (key=%s): %w", key, err)
	}

	return value, nil
}

func (m *metaRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx)

	if _, err := m.db.ExecContext(ctx, upsertMetaValue, key, value); err != nil {
		log.Err(err).
			Str("func", "metaRepository.Set").
			Str("key", key).
			Msg("failed to upsert vault meta value")
		return fmt.Errorf("failed to set vault meta value (key=%s): %w", key, err)
	}

	return nil
}

func (m *metaRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.Get(ctx, key)
	if errors.Is(err, ErrMetaKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
