// Package retry runs startup operations that may fail while a dependency is
// still coming up.
package retry

import (
	"context"
	"fmt"
	"time"

	"propensia_dashboard/platform/logger"
)

// Do calls fn up to attempts times, sleeping attempt² × baseDelay between
// tries. It stops early when ctx is cancelled.
func Do(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * baseDelay):
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
