package scheduler

import (
	"context"
	"time"

	"propensia_dashboard/platform/logger"
)

const defaultDraftCleanupInterval = 10 * time.Minute

// ExpiredPurger removes expired draft batches. The Redis store expires keys
// on its own and does not need one.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// DraftCleanup periodically purges expired draft batches from memory.
type DraftCleanup struct {
	store    ExpiredPurger
	log      *logger.Logger
	interval time.Duration
}

func NewDraftCleanup(store ExpiredPurger, log *logger.Logger, interval time.Duration) *DraftCleanup {
	if interval <= 0 {
		interval = defaultDraftCleanupInterval
	}
	return &DraftCleanup{store: store, log: log, interval: interval}
}

func (c *DraftCleanup) Run(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *DraftCleanup) cleanup(ctx context.Context) {
	purged, err := c.store.PurgeExpired(ctx)
	if err != nil {
		c.log.Warn("draft cleanup failed", "error", err)
		return
	}

	if purged > 0 {
		c.log.Info("draft cleanup purged expired batches", "purged", purged)
	}
}
