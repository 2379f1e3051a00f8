// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package service

import (
	"sync"
	"time"
)

const (
	maxAttempts        = 5
	baseLockoutDelay   = 5 * time.Second
	maxBackoffExponent = 10
)

// AttemptLimiter tracks failed unlock attempts and enforces an exponential
// lockout. Password and TOTP failures are counted separately but share a
// single lockout window. All state is in memory only: a process restart
// clears the counters, which is acceptable because the attacker has to be
// sitting at the same machine anyway.
type AttemptLimiter struct {
	mu sync.Mutex

	now func() time.Time

	failedPassword int
	failedTotp     int
	lockedUntil    time.Time
}

func NewAttemptLimiter() *AttemptLimiter {
	return &AttemptLimiter{now: time.Now}
}

// RecordPasswordFailure counts one failed master password attempt and
// extends the lockout once the threshold is reached.
func (l *AttemptLimiter) RecordPasswordFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failedPassword++
	l.applyBackoff(l.failedPassword)
}

// RecordTotpFailure counts one failed TOTP attempt.
func (l *AttemptLimiter) RecordTotpFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failedTotp++
	l.applyBackoff(l.failedTotp)
}

// ResetPasswordFailures clears the password counter after a successful
// verification. A lockout already in effect keeps ticking.
func (l *AttemptLimiter) ResetPasswordFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failedPassword = 0
}

// ResetTotpFailures clears the TOTP counter after a successful verification.
func (l *AttemptLimiter) ResetTotpFailures() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failedTotp = 0
}

// IsLockedOut reports whether attempts are currently rejected.
func (l *AttemptLimiter) IsLockedOut() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now().Before(l.lockedUntil)
}

// RemainingLockout returns how long until the next attempt is accepted,
// or zero when no lockout is active.
func (l *AttemptLimiter) RemainingLockout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.lockedUntil.Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PasswordFailures returns the current failed password attempt count.
func (l *AttemptLimiter) PasswordFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failedPassword
}

// TotpFailures returns the current failed TOTP attempt count.
func (l *AttemptLimiter) TotpFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failedTotp
}

// applyBackoff must be called with l.mu held. Starting at the fifth failure
// the lockout doubles with every further one, capped at base*2^10.
func (l *AttemptLimiter) applyBackoff(attempts int) {
	if attempts < maxAttempts {
		return
	}
	exp := attempts - maxAttempts
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}
	delay := baseLockoutDelay * time.Duration(1<<exp)
	l.lockedUntil = l.now().Add(delay)
}
