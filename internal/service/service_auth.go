// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/akulikov/go-secret-vault/internal/crypto"
	"github.com/akulikov/go-secret-vault/internal/logger"
	"github.com/akulikov/go-secret-vault/internal/store"
)

// Vault metadata keys.
const (
	metaKeySalt       = "kdf_salt"
	metaKeyIterations = "kdf_iterations"
	metaKeyTotpSecret = "totp_secret_enc"
)

// backupCodeHashCost is the bcrypt cost for stored recovery codes. Codes are
// short, so the hash has to be slow.
const backupCodeHashCost = 12

type sessionState int

const (
	stateLocked sessionState = iota
	statePasswordVerified
	stateUnlocked
)

type authService struct {
	meta    store.MetaRepository
	codes   store.BackupCodeRepository
	cipher  crypto.VaultCipher
	totp    TotpProvider
	limiter *AttemptLimiter
	logger  *logger.Logger

	// iterations is the KDF cost written into metadata at setup time.
	// Existing vaults keep the count recorded when they were created.
	iterations int

	mu         sync.Mutex
	state      sessionState
	sessionKey []byte
}

// NewAuthService wires the unlock session over the metadata and backup code
// repositories.
func NewAuthService(meta store.MetaRepository, codes store.BackupCodeRepository, cipher crypto.VaultCipher, totp TotpProvider, limiter *AttemptLimiter, iterations int, log *logger.Logger) AuthService {
	return &authService{
		meta:       meta,
		codes:      codes,
		cipher:     cipher,
		totp:       totp,
		limiter:    limiter,
		iterations: iterations,
		logger:     log,
	}
}

func (a *authService) IsVaultSetup(ctx context.Context) (bool, error) {
	ok, err := a.meta.Exists(ctx, metaKeySalt)
	if err != nil {
		return false, fmt.Errorf("check vault metadata: %w", err)
	}
	return ok, nil
}

func (a *authService) SetupVault(ctx context.Context, password []byte) (string, error) {
	defer crypto.Zero(password)

	setup, err := a.IsVaultSetup(ctx)
	if err != nil {
		return "", err
	}
	if setup {
		return "", ErrVaultAlreadySetup
	}

	salt, err := a.cipher.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key, err := a.cipher.DeriveKey(password, salt, a.iterations)
	if err != nil {
		return "", fmt.Errorf("derive key: %w", err)
	}

	secret, err := a.totp.GenerateSecret()
	if err != nil {
		crypto.Zero(key)
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	secretEnc, err := a.cipher.EncryptString(secret, key)
	if err != nil {
		crypto.Zero(key)
		return "", fmt.Errorf("encrypt totp secret: %w", err)
	}

	if err = a.meta.Set(ctx, metaKeySalt, crypto.ToHex(salt)); err != nil {
		crypto.Zero(key)
		return "", fmt.Errorf("store salt: %w", err)
	}
	if err = a.meta.Set(ctx, metaKeyIterations, strconv.Itoa(a.iterations)); err != nil {
		crypto.Zero(key)
		return "", fmt.Errorf("store iterations: %w", err)
	}
	if err = a.meta.Set(ctx, metaKeyTotpSecret, crypto.ToHex(secretEnc)); err != nil {
		crypto.Zero(key)
		return "", fmt.Errorf("store totp secret: %w", err)
	}

	a.mu.Lock()
	a.replaceSessionKey(key)
	a.state = stateUnlocked
	a.mu.Unlock()

	logger.FromContext(ctx).Info().Str("func", "authService.SetupVault").Msg("vault initialized")
	return secret, nil
}

func (a *authService) VerifyMasterPassword(ctx context.Context, password []byte) error {
	defer crypto.Zero(password)

	if a.limiter.IsLockedOut() {
		return &RateLimitedError{RetryAfter: a.limiter.RemainingLockout()}
	}

	salt, iterations, secretEnc, err := a.loadKDFMeta(ctx)
	if err != nil {
		return err
	}

	candidate, err := a.cipher.DeriveKey(password, salt, iterations)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}

	// The encrypted TOTP secret doubles as the password verifier: only the
	// right key makes the GCM tag check out.
	if _, err = a.cipher.Decrypt(secretEnc, candidate); err != nil {
		crypto.Zero(candidate)
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			a.limiter.RecordPasswordFailure()
			a.mu.Lock()
			a.replaceSessionKey(nil)
			a.state = stateLocked
			a.mu.Unlock()
			logger.FromContext(ctx).Warn().Str("func", "authService.VerifyMasterPassword").
				Int("failures", a.limiter.PasswordFailures()).Msg("wrong master password")
			return ErrInvalidCredentials
		}
		return fmt.Errorf("decrypt totp secret: %w", err)
	}

	a.mu.Lock()
	a.replaceSessionKey(candidate)
	a.state = statePasswordVerified
	a.mu.Unlock()
	a.limiter.ResetPasswordFailures()
	return nil
}

func (a *authService) VerifyTotp(ctx context.Context, code string) error {
	if a.limiter.IsLockedOut() {
		return &RateLimitedError{RetryAfter: a.limiter.RemainingLockout()}
	}

	secret, err := a.sessionTotpSecret(ctx)
	if err != nil {
		return err
	}

	if !a.totp.Verify(secret, code) {
		a.limiter.RecordTotpFailure()
		logger.FromContext(ctx).Warn().Str("func", "authService.VerifyTotp").
			Int("failures", a.limiter.TotpFailures()).Msg("wrong totp code")
		return ErrInvalidCredentials
	}

	a.mu.Lock()
	a.state = stateUnlocked
	a.mu.Unlock()
	a.limiter.ResetTotpFailures()
	return nil
}

func (a *authService) VerifyBackupCode(ctx context.Context, code string) error {
	a.mu.Lock()
	if a.state == stateLocked || a.sessionKey == nil {
		a.mu.Unlock()
		return ErrPasswordNotVerified
	}
	a.mu.Unlock()

	unused, err := a.codes.FindUnused(ctx)
	if err != nil {
		return fmt.Errorf("load backup codes: %w", err)
	}

	for _, bc := range unused {
		if bcrypt.CompareHashAndPassword([]byte(bc.CodeHash), []byte(code)) != nil {
			continue
		}
		if err = a.codes.MarkUsed(ctx, bc.ID); err != nil {
			return fmt.Errorf("consume backup code: %w", err)
		}
		a.mu.Lock()
		a.state = stateUnlocked
		a.mu.Unlock()
		logger.FromContext(ctx).Info().Str("func", "authService.VerifyBackupCode").Msg("unlocked with backup code")
		return nil
	}
	return ErrInvalidCredentials
}

func (a *authService) GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		parts := make([]string, 3)
		for j := range parts {
			v, err := rand.Int(rand.Reader, big.NewInt(10_000))
			if err != nil {
				return nil, fmt.Errorf("generate backup code: %w", err)
			}
			parts[j] = fmt.Sprintf("%04d", v.Int64())
		}
		codes = append(codes, parts[0]+"-"+parts[1]+"-"+parts[2])
	}
	return codes, nil
}

func (a *authService) StoreBackupCodes(ctx context.Context, codes []string) error {
	if !a.IsUnlocked() {
		return ErrVaultLocked
	}

	hashes := make([]string, 0, len(codes))
	for _, code := range codes {
		h, err := bcrypt.GenerateFromPassword([]byte(code), backupCodeHashCost)
		if err != nil {
			return fmt.Errorf("hash backup code: %w", err)
		}
		hashes = append(hashes, string(h))
	}

	if err := a.codes.ReplaceAll(ctx, hashes); err != nil {
		return fmt.Errorf("store backup codes: %w", err)
	}
	logger.FromContext(ctx).Info().Str("func", "authService.StoreBackupCodes").
		Int("count", len(hashes)).Msg("backup codes replaced")
	return nil
}

func (a *authService) UnusedBackupCodes(ctx context.Context) (int, error) {
	n, err := a.codes.CountUnused(ctx)
	if err != nil {
		return 0, fmt.Errorf("count backup codes: %w", err)
	}
	return n, nil
}

func (a *authService) ChangeMasterPassword(ctx context.Context, oldPassword, newPassword []byte) error {
	defer crypto.Zero(oldPassword)
	defer crypto.Zero(newPassword)

	if !a.IsUnlocked() {
		return ErrVaultLocked
	}

	salt, iterations, secretEnc, err := a.loadKDFMeta(ctx)
	if err != nil {
		return err
	}

	oldKey, err := a.cipher.DeriveKey(oldPassword, salt, iterations)
	if err != nil {
		return fmt.Errorf("derive old key: %w", err)
	}
	secret, err := a.cipher.DecryptString(secretEnc, oldKey)
	crypto.Zero(oldKey)
	if err != nil {
		if errors.Is(err, crypto.ErrAuthenticationFailed) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("decrypt totp secret: %w", err)
	}

	newSalt, err := a.cipher.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	newKey, err := a.cipher.DeriveKey(newPassword, newSalt, a.iterations)
	if err != nil {
		return fmt.Errorf("derive new key: %w", err)
	}
	newSecretEnc, err := a.cipher.EncryptString(secret, newKey)
	if err != nil {
		crypto.Zero(newKey)
		return fmt.Errorf("re-encrypt totp secret: %w", err)
	}

	if err = a.meta.Set(ctx, metaKeySalt, crypto.ToHex(newSalt)); err != nil {
		crypto.Zero(newKey)
		return fmt.Errorf("store salt: %w", err)
	}
	if err = a.meta.Set(ctx, metaKeyIterations, strconv.Itoa(a.iterations)); err != nil {
		crypto.Zero(newKey)
		return fmt.Errorf("store iterations: %w", err)
	}
	if err = a.meta.Set(ctx, metaKeyTotpSecret, crypto.ToHex(newSecretEnc)); err != nil {
		crypto.Zero(newKey)
		return fmt.Errorf("store totp secret: %w", err)
	}

	a.mu.Lock()
	a.replaceSessionKey(newKey)
	a.state = stateUnlocked
	a.mu.Unlock()

	logger.FromContext(ctx).Info().Str("func", "authService.ChangeMasterPassword").Msg("master password changed")
	return nil
}

func (a *authService) EnrollmentURI(secret string) string {
	return a.totp.ProvisionURI("vault", secret)
}

func (a *authService) SessionKey() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateUnlocked || a.sessionKey == nil {
		return nil, ErrVaultLocked
	}
	return a.sessionKey, nil
}

func (a *authService) IsUnlocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateUnlocked
}

func (a *authService) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replaceSessionKey(nil)
	a.state = stateLocked
}

func (a *authService) RemainingLockout() time.Duration {
	return a.limiter.RemainingLockout()
}

// replaceSessionKey must be called with a.mu held. The previous key is
// wiped before the new one takes its place.
func (a *authService) replaceSessionKey(key []byte) {
	crypto.Zero(a.sessionKey)
	a.sessionKey = key
}

// sessionTotpSecret decrypts the stored TOTP secret with the key of the
// password-verified session.
func (a *authService) sessionTotpSecret(ctx context.Context) (string, error) {
	a.mu.Lock()
	if a.state == stateLocked || a.sessionKey == nil {
		a.mu.Unlock()
		return "", ErrPasswordNotVerified
	}
	key := a.sessionKey
	a.mu.Unlock()

	_, _, secretEnc, err := a.loadKDFMeta(ctx)
	if err != nil {
		return "", err
	}
	secret, err := a.cipher.DecryptString(secretEnc, key)
	if err != nil {
		return "", fmt.Errorf("decrypt totp secret: %w", err)
	}
	return secret, nil
}

// loadKDFMeta reads the key-derivation parameters and the encrypted TOTP
// secret from vault metadata.
func (a *authService) loadKDFMeta(ctx context.Context) (salt []byte, iterations int, secretEnc []byte, err error) {
	saltHex, err := a.meta.Get(ctx, metaKeySalt)
	if err != nil {
		if errors.Is(err, store.ErrMetaKeyNotFound) {
			return nil, 0, nil, ErrVaultNotSetup
		}
		return nil, 0, nil, fmt.Errorf("load salt: %w", err)
	}
	salt, err = crypto.FromHex(saltHex)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("decode salt: %w", err)
	}

	iterations = crypto.DefaultIterations
	if raw, getErr := a.meta.Get(ctx, metaKeyIterations); getErr == nil {
		iterations, err = strconv.Atoi(raw)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("parse iteration count %q: %w", raw, err)
		}
	} else if !errors.Is(getErr, store.ErrMetaKeyNotFound) {
		return nil, 0, nil, fmt.Errorf("load iterations: %w", getErr)
	}

	secretHex, err := a.meta.Get(ctx, metaKeyTotpSecret)
	if err != nil {
		if errors.Is(err, store.ErrMetaKeyNotFound) {
			return nil, 0, nil, ErrVaultNotSetup
		}
		return nil, 0, nil, fmt.Errorf("load totp secret: %w", err)
	}
	secretEnc, err = crypto.FromHex(secretHex)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("decode totp secret: %w", err)
	}
	return salt, iterations, secretEnc, nil
}
