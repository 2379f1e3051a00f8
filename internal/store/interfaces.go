package store

import (
	"context"

	"github.com/akulikov/go-secret-vault/models"
)

// MetaRepository persists the vault_meta key→text rows: kdf_salt (hex),
// kdf_iterations (decimal) and totp_secret_enc (hex cipher blob). The
// totp_secret_enc row doubles as the master-password verifier and must only
// ever be rewritten together with the salt on a password change.
type MetaRepository interface {
	// Get returns the value for key, or ErrMetaKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set inserts or overwrites the value for key.
	Set(ctx context.Context, key, value string) error
	// Exists reports whether key has a value.
	Exists(ctx context.Context, key string) (bool, error)
}

// EntryRepository persists the plaintext part of vault entries (titles,
// types, favorites). Secret values never pass through it.
type EntryRepository interface {
	Create(ctx context.Context, entry models.Entry) (int64, error)
	GetByID(ctx context.Context, id int64) (models.Entry, error)
	List(ctx context.Context) ([]models.Entry, error)
	SearchByTitle(ctx context.Context, query string) ([]models.Entry, error)
	Update(ctx context.Context, entry models.Entry) error
	Delete(ctx context.Context, id int64) error
}

// FieldRepository persists per-entry encrypted field values. Values are
// opaque cipher blobs here; encryption happens in the service layer.
type FieldRepository interface {
	// ReplaceFields atomically replaces the full field set of an entry:
	// delete-then-insert within one transaction, so readers never observe a
	// partial overwrite. Any failure rolls back to the pre-call state.
	ReplaceFields(ctx context.Context, entryID int64, fields map[string][]byte) error
	// GetFields returns every stored field blob for an entry.
	GetFields(ctx context.Context, entryID int64) (map[string][]byte, error)
}

// HistoryRepository retains the last MaxHistory encrypted password versions
// per entry.
type HistoryRepository interface {
	// Save appends one history row and prunes the oldest rows beyond
	// MaxHistory in the same transaction.
	Save(ctx context.Context, entryID int64, valueEnc []byte, changedAt int64) error
	// FindByEntry returns history rows newest-first.
	FindByEntry(ctx context.Context, entryID int64) ([]models.PasswordHistory, error)
}

// BackupCodeRepository persists one-time recovery codes as bcrypt hashes.
type BackupCodeRepository interface {
	// ReplaceAll atomically replaces the full code set (delete-all,
	// insert-all in one transaction), invalidating every prior code.
	ReplaceAll(ctx context.Context, codeHashes []string) error
	// FindUnused returns every code row not yet consumed.
	FindUnused(ctx context.Context) ([]models.BackupCode, error)
	// MarkUsed permanently consumes one code.
	MarkUsed(ctx context.Context, id int64) error
	// CountUnused reports how many codes remain.
	CountUnused(ctx context.Context) (int, error)
}
