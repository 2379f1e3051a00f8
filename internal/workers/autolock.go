// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Andrei Kulikov

package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akulikov/go-secret-vault/internal/logger"
)

// AutoLock locks the vault session after a period of no user activity. The
// application reports activity through Touch; the job polls and calls Lock
// once the idle interval has elapsed. The job is idle until Start is called.
type AutoLock struct {
	locker    Locker
	idleAfter time.Duration
	logger    *logger.Logger

	// lastActivity is unix nanoseconds of the most recent Touch.
	lastActivity atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAutoLock(locker Locker, idleAfter time.Duration, log *logger.Logger) *AutoLock {
	if idleAfter <= 0 {
		idleAfter = 5 * time.Minute
	}
	j := &AutoLock{locker: locker, idleAfter: idleAfter, logger: log}
	j.Touch()
	return j
}

// Touch records user activity, postponing the next auto-lock.
func (j *AutoLock) Touch() {
	j.lastActivity.Store(time.Now().UnixNano())
}

// Start implements Worker. It stops any previously running job, then
// launches a goroutine that checks the idle clock on a ticker. The goroutine
// exits when ctx is cancelled or Stop is called.
func (j *AutoLock) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.pollInterval())
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.lockIfIdle()
			}
		}
	}()
}

// Stop implements Worker. Safe to call when the job is not running.
func (j *AutoLock) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *AutoLock) lockIfIdle() {
	if !j.locker.IsUnlocked() {
		return
	}
	idle := time.Since(time.Unix(0, j.lastActivity.Load()))
	if idle < j.idleAfter {
		return
	}
	j.locker.Lock()
	j.logger.Info().Str("func", "AutoLock.lockIfIdle").
		Dur("idle", idle.Round(time.Second)).Msg("session auto-locked")
}

// pollInterval checks a few times per idle window so the lock lands close to
// the deadline without a busy loop.
func (j *AutoLock) pollInterval() time.Duration {
	interval := j.idleAfter / 4
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	return interval
}
