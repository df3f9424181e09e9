package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"propensia_dashboard/platform/logger"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(context.Context) (int, error) {
	p.calls.Add(1)
	return 1, p.err
}

func TestDraftCleanupRunsUntilCancelled(t *testing.T) {
	purger := &countingPurger{}
	cleanup := NewDraftCleanup(purger, logger.Discard(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cleanup.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated purges, got %d", purger.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("cleanup did not stop after cancel")
	}
}

func TestDraftCleanupToleratesErrorsAndNilStore(t *testing.T) {
	purger := &countingPurger{err: errors.New("boom")}
	NewDraftCleanup(purger, logger.Discard(), time.Minute).cleanup(context.Background())
	if purger.calls.Load() != 1 {
		t.Fatalf("expected one purge call")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewDraftCleanup(nil, logger.Discard(), time.Minute).Run(ctx)
}
