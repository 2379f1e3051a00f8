package service

import (
	"context"
	"time"

	"github.com/akulikov/go-secret-vault/models"
)

// AuthService owns the two-step unlock session, the master password
// lifecycle and the backup code pool. At most one session exists per
// process; all methods are safe for concurrent use.
type AuthService interface {
	// IsVaultSetup reports whether the vault has been initialized.
	IsVaultSetup(ctx context.Context) (bool, error)

	// SetupVault initializes a fresh vault: generates the KDF salt and the
	// TOTP secret, stores them in vault metadata and leaves the session
	// unlocked. Returns the plaintext TOTP secret so the caller can show it
	// for authenticator enrollment, exactly once. The password buffer is
	// zeroed before the call returns.
	SetupVault(ctx context.Context, password []byte) (string, error)

	// VerifyMasterPassword is step one of the unlock flow. On success the
	// session advances to the password-verified state. On a wrong password
	// it returns ErrInvalidCredentials and counts the failure; during a
	// lockout it returns a *RateLimitedError without evaluating the
	// password. The password buffer is zeroed before the call returns.
	VerifyMasterPassword(ctx context.Context, password []byte) error

	// VerifyTotp is step two of the unlock flow. Requires a prior
	// successful VerifyMasterPassword, otherwise ErrPasswordNotVerified.
	VerifyTotp(ctx context.Context, code string) error

	// VerifyBackupCode is the recovery variant of step two. A matching
	// code is consumed and can never be used again.
	VerifyBackupCode(ctx context.Context, code string) error

	// GenerateBackupCodes produces n random codes in dddd-dddd-dddd form.
	// The plaintext codes are returned for one-time display; only their
	// bcrypt hashes are ever persisted via StoreBackupCodes.
	GenerateBackupCodes(n int) ([]string, error)

	// StoreBackupCodes hashes the given codes and replaces the whole
	// stored pool with them. Requires an unlocked session.
	StoreBackupCodes(ctx context.Context, codes []string) error

	// UnusedBackupCodes returns how many recovery codes remain.
	UnusedBackupCodes(ctx context.Context) (int, error)

	// ChangeMasterPassword re-keys the vault: verifies the old password,
	// generates a fresh salt, derives the new key and re-encrypts the TOTP
	// secret under it. Requires an unlocked session. Both password buffers
	// are zeroed before the call returns.
	ChangeMasterPassword(ctx context.Context, oldPassword, newPassword []byte) error

	// EnrollmentURI renders an otpauth:// URI for the given TOTP secret.
	EnrollmentURI(secret string) string

	// SessionKey returns the derived vault key of the unlocked session.
	// The slice is owned by the session: callers must not modify or retain
	// it past Lock.
	SessionKey() ([]byte, error)

	// IsUnlocked reports whether both unlock steps have completed.
	IsUnlocked() bool

	// Lock wipes the session key from memory and returns the session to
	// the locked state. Safe to call at any time.
	Lock()

	// RemainingLockout returns how long unlock attempts stay rejected,
	// zero when no lockout is active.
	RemainingLockout() time.Duration
}

// VaultService manages secret entries. Every method taking a key expects
// the session key from AuthService.SessionKey; field values are encrypted
// before they reach storage and decrypted on the way out.
type VaultService interface {
	CreateEntry(ctx context.Context, input models.EntryInput, key []byte) (int64, error)
	GetEntry(ctx context.Context, id int64, key []byte) (models.EntryDetail, error)
	ListEntries(ctx context.Context) ([]models.Entry, error)
	SearchEntries(ctx context.Context, query string) ([]models.Entry, error)

	// UpdateEntry replaces the entry and its fields. When the password
	// field of a login entry changes, the previous password is pushed to
	// the entry's history first.
	UpdateEntry(ctx context.Context, input models.EntryInput, key []byte) error

	DeleteEntry(ctx context.Context, id int64) error

	// GetHistory returns the retained previous passwords of an entry,
	// newest first.
	GetHistory(ctx context.Context, id int64, key []byte) ([]models.PasswordVersion, error)
}

// ExportService moves vault contents through encrypted JSON files.
type ExportService interface {
	// Export writes all entries to path as an encrypted export file. The
	// payload is sealed under a key derived from masterPassword with a
	// fresh salt, independent of the vault key.
	Export(ctx context.Context, path string, key []byte, masterPassword []byte) error

	// Import reads an export file, decrypts it with masterPassword and
	// creates the contained entries. Returns the number imported.
	Import(ctx context.Context, path string, masterPassword []byte, key []byte) (int, error)
}

// TotpProvider abstracts the one-time code algorithm for AuthService.
// Implemented by totp.Service.
type TotpProvider interface {
	GenerateSecret() (string, error)
	Verify(secret, code string) bool
	ProvisionURI(account, secret string) string
}
