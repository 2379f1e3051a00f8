package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/models"
)

// qb builds dynamic statements with $N placeholders, shared by both dialects.
var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var entryColumns = []string{"id", "uid", "type", "title", "favorite", "created_at", "updated_at"}

type entryRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewEntryRepository(db *DB, logger *logger.Logger) EntryRepository {
	return &entryRepository{db: db, logger: logger}
}

func (r *entryRepository) Create(ctx context.Context, entry models.Entry) (int64, error) {
	log := logger.FromContext(ctx)

	builder := qb.Insert("entries").
		Columns("uid", "type", "title", "favorite", "created_at", "updated_at").
		Values(entry.UID, entry.Type, entry.Title, entry.Favorite, entry.CreatedAt, entry.UpdatedAt)

	// PostgreSQL has no LastInsertId; SQLite has no RETURNING before 3.35.
	if r.db.dialect == "pgx" {
		query, args, err := builder.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert entry query: %w", err)
		}
		var id int64
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, r.createError(log, entry, err)
		}
		return id, nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert entry query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, r.createError(log, entry, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted entry id: %w", err)
	}
	return id, nil
}

func (r *entryRepository) createError(log *logger.Logger, entry models.Entry, err error) error {
	if r.db.classify.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrEntryConflict, entry.UID)
	}
	log.Err(err).
		Str("func", "entryRepository.Create").
		Str("uid", entry.UID).
		Msg("failed to insert entry")
	return fmt.Errorf("failed to insert entry (uid=%s): %w", entry.UID, err)
}

func (r *entryRepository) GetByID(ctx context.Context, id int64) (models.Entry, error) {
	log := logger.FromContext(ctx)

	query, args, err := qb.Select(entryColumns...).From("entries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to build get entry query: %w", err)
	}

	entry, scanErr := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(scanErr, sql.ErrNoRows) {
		return models.Entry{}, fmt.Errorf("%w: id=%d", ErrEntryNotFound, id)
	}
	if scanErr != nil {
		log.Err(scanErr).
			Str("func", "entryRepository.GetByID").
			Int64("id", id).
			Msg("failed to scan entry row")
		return models.Entry{}, fmt.Errorf("failed to scan entry row: %w", scanErr)
	}

	return entry, nil
}

func (r *entryRepository) List(ctx context.Context) ([]models.Entry, error) {
	return r.selectEntries(ctx, "entryRepository.List",
		qb.Select(entryColumns...).From("entries").OrderBy("title"))
}

func (r *entryRepository) SearchByTitle(ctx context.Context, query string) ([]models.Entry, error) {
	return r.selectEntries(ctx, "entryRepository.SearchByTitle",
		qb.Select(entryColumns...).From("entries").
			Where(sq.Like{"LOWER(title)": "%" + strings.ToLower(query) + "%"}).
			OrderBy("title"))
}

func (r *entryRepository) selectEntries(ctx context.Context, fn string, builder sq.SelectBuilder) ([]models.Entry, error) {
	log := logger.FromContext(ctx)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select entries query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", fn).Msg("failed to query entries")
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			log.Err(scanErr).Str("func", fn).Msg("failed to scan entry row")
			return nil, fmt.Errorf("failed to scan entry row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).Str("func", fn).Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating entry rows: %w", rowsErr)
	}

	return entries, nil
}

func (r *entryRepository) Update(ctx context.Context, entry models.Entry) error {
	log := logger.FromContext(ctx)

	query, args, err := qb.Update("entries").
		Set("type", entry.Type).
		Set("title", entry.Title).
		Set("favorite", entry.Favorite).
		Set("updated_at", entry.UpdatedAt).
		Where(sq.Eq{"id": entry.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update entry query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "entryRepository.Update").
			Int64("id", entry.ID).
			Msg("failed to update entry")
		return fmt.Errorf("failed to update entry (id=%d): %w", entry.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: id=%d", ErrEntryNotFound, entry.ID)
	}

	return nil
}

func (r *entryRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	query, args, err := qb.Delete("entries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete entry query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "entryRepository.Delete").
			Int64("id", id).
			Msg("failed to delete entry")
		return fmt.Errorf("failed to delete entry (id=%d): %w", id, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (models.Entry, error) {
	var entry models.Entry
	err := row.Scan(
		&entry.ID,
		&entry.UID,
		&entry.Type,
		&entry.Title,
		&entry.Favorite,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	return entry, err
}
