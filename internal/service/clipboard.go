package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/akulikov/go-secret-vault/internal/logger"
)

// Clipboard copies secrets to the system clipboard and wipes them after a
// configured delay. Copying again restarts the timer; only the most recent
// copy is ever cleared.
type Clipboard struct {
	mu         sync.Mutex
	timer      *time.Timer
	clearAfter time.Duration
	logger     *logger.Logger

	// write is swapped out in tests.
	write func(string) error
}

func NewClipboard(clearAfter time.Duration, log *logger.Logger) *Clipboard {
	return &Clipboard{
		clearAfter: clearAfter,
		logger:     log,
		write:      clipboard.WriteAll,
	}
}

// CopySecret places text on the clipboard and schedules the wipe.
func (c *Clipboard) CopySecret(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.clearAfter, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.write(""); err != nil {
			c.logger.Warn().Err(err).Str("func", "Clipboard.CopySecret").Msg("clipboard wipe failed")
			return
		}
		c.logger.Info().Str("func", "Clipboard.CopySecret").Msg("clipboard wiped")
	})
	return nil
}

// ClearNow wipes the clipboard immediately and cancels any pending wipe.
func (c *Clipboard) ClearNow() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if err := c.write(""); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
