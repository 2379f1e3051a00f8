// Package workers provides the background jobs of the vault application.
// It defines the Worker interface, a Workers aggregate to start and stop a
// set of jobs together, and the auto-lock job.
package workers

import "context"

// Worker is a background job with an explicit lifecycle. Start launches the
// job's goroutine and returns immediately; Stop blocks until it has exited.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}

// Locker is the part of the auth session the auto-lock job drives.
// Implemented by service.AuthService.
type Locker interface {
	IsUnlocked() bool
	Lock()
}
