// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLen is the key-derivation salt length in bytes.
	SaltLen = 16
	// KeyLen is the AES-256 key length in bytes.
	KeyLen = 32
	// DefaultIterations is the default PBKDF2 iteration count used when a
	// vault is created and when export files are sealed.
	DefaultIterations = 200_000

	gcmIVLen = 12
)

// vaultCipher is the private implementation of [VaultCipher].
type vaultCipher struct{}

// NewVaultCipher constructs a [VaultCipher] backed by PBKDF2-HMAC-SHA256 and
// AES-256-GCM. The ciphertext layout on disk is IV (12 bytes) || ciphertext ||
// GCM tag (16 bytes), concatenated into a single opaque blob.
func NewVaultCipher() VaultCipher {
	return &vaultCipher{}
}

// GenerateSalt implements [VaultCipher]. It reads 16 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (c *vaultCipher) GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey implements [VaultCipher].
func (c *vaultCipher) DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", ErrInvalidKDFParams)
	}
	if iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations=%d", ErrInvalidKDFParams, iterations)
	}
	return pbkdf2.Key(password, salt, iterations, KeyLen, sha256.New), nil
}

// Encrypt implements [VaultCipher].
func (c *vaultCipher) Encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcmIVLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate IV: %w", err)
	}

	// Prepend the IV so Decrypt can split it out again.
	return gcm.Seal(iv, iv, plaintext, nil), nil
}

// Decrypt implements [VaultCipher].
func (c *vaultCipher) Decrypt(blob, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) <= gcmIVLen {
		return nil, fmt.Errorf("%w: len=%d", ErrMalformedCiphertext, len(blob))
	}
	iv, ciphertext := blob[:gcmIVLen], blob[gcmIVLen:]

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		// No distinction between wrong key and corrupted data at this layer.
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// EncryptString implements [VaultCipher].
func (c *vaultCipher) EncryptString(plaintext string, key []byte) ([]byte, error) {
	return c.Encrypt([]byte(plaintext), key)
}

// DecryptString implements [VaultCipher].
func (c *vaultCipher) DecryptString(blob, key []byte) (string, error) {
	plaintext, err := c.Decrypt(blob, key)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}
