package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials is returned for a wrong master password, TOTP
	// code or backup code. Callers get no finer detail than this.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRateLimited marks rejections caused by the attempt limiter. Use
	// errors.As with *RateLimitedError to read the remaining wait.
	ErrRateLimited = errors.New("too many failed attempts")

	// ErrVaultNotSetup is returned when an operation needs vault metadata
	// that has not been written yet.
	ErrVaultNotSetup = errors.New("vault is not set up")

	// ErrVaultAlreadySetup guards against re-initializing an existing vault.
	ErrVaultAlreadySetup = errors.New("vault is already set up")

	// ErrVaultLocked is returned when an operation requires an unlocked
	// session.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrPasswordNotVerified is returned when the second unlock step is
	// attempted before the master password has been proven.
	ErrPasswordNotVerified = errors.New("master password not verified")
)

// RateLimitedError carries how long the caller has to wait before the next
// attempt will be considered. It unwraps to ErrRateLimited.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }
