package crypto

// VaultCipher is responsible for every cryptographic primitive the vault
// engine needs: key derivation from the master password, authenticated
// field encryption and salt generation. It knows nothing about the
// database, sessions or rate limiting.
//
// Scheme:
//
//	salt = GenerateSalt()                          (first-run setup)
//	key  = DeriveKey(password, salt, iterations)   (every unlock)
//	blob = Encrypt(plaintext, key)                 (IV || ciphertext || tag)
type VaultCipher interface {
	// GenerateSalt generates a random key-derivation salt (16 bytes / 128 bits).
	// The salt is not a secret and is stored in vault_meta in the clear.
	GenerateSalt() ([]byte, error)

	// DeriveKey derives a 256-bit AES key from the master password using
	// PBKDF2-HMAC-SHA256. Deterministic: identical inputs always produce the
	// identical key. Fails with ErrInvalidKDFParams on an empty salt or a
	// non-positive iteration count. The caller must zero the password buffer
	// immediately after the call returns, on success or failure.
	DeriveKey(password, salt []byte, iterations int) ([]byte, error)

	// Encrypt seals plaintext with AES-256-GCM under a fresh random 96-bit IV
	// and returns the blob IV || ciphertext || tag. The IV is never reused for
	// a given key because it is freshly drawn from the CSPRNG on every call.
	Encrypt(plaintext, key []byte) ([]byte, error)

	// Decrypt opens a blob produced by Encrypt. Fails with
	// ErrMalformedCiphertext when the blob is not longer than the IV, and with
	// ErrAuthenticationFailed when the tag does not verify (wrong key and
	// tampered data are indistinguishable here).
	Decrypt(blob, key []byte) ([]byte, error)

	// EncryptString seals a UTF-8 string. Convenience over Encrypt.
	EncryptString(plaintext string, key []byte) ([]byte, error)

	// DecryptString opens a blob back to a UTF-8 string. Convenience over Decrypt.
	DecryptString(blob, key []byte) (string, error)
}
