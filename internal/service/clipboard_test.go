package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akulikov/go-secret-vault/internal/logger"
)

// recordingClipboard captures writes so tests run without a real clipboard.
type recordingClipboard struct {
	mu     sync.Mutex
	writes []string
}

func (r *recordingClipboard) writeAll(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, s)
	return nil
}

func (r *recordingClipboard) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

func (r *recordingClipboard) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

func newTestClipboard(clearAfter time.Duration) (*Clipboard, *recordingClipboard) {
	rec := &recordingClipboard{}
	c := NewClipboard(clearAfter, logger.Nop())
	c.write = rec.writeAll
	return c, rec
}

func TestClipboard_WipedAfterDelay(t *testing.T) {
	c, rec := newTestClipboard(20 * time.Millisecond)

	require.NoError(t, c.CopySecret("hunter2"))
	assert.Equal(t, "hunter2", rec.last())

	assert.Eventually(t, func() bool { return rec.last() == "" }, time.Second, 5*time.Millisecond)
}

func TestClipboard_RecopyRestartsTimer(t *testing.T) {
	c, rec := newTestClipboard(50 * time.Millisecond)

	require.NoError(t, c.CopySecret("first"))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.CopySecret("second"))
	time.Sleep(30 * time.Millisecond)

	// The first timer was cancelled, so "second" survives its deadline.
	assert.Equal(t, "second", rec.last())

	assert.Eventually(t, func() bool { return rec.last() == "" }, time.Second, 5*time.Millisecond)
	// Exactly one wipe: first, second, empty.
	assert.Equal(t, 3, rec.count())
}

func TestClipboard_ClearNow(t *testing.T) {
	c, rec := newTestClipboard(time.Hour)

	require.NoError(t, c.CopySecret("hunter2"))
	require.NoError(t, c.ClearNow())
	assert.Equal(t, "", rec.last())

	// The pending wipe was cancelled with the timer.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, rec.count())
}
