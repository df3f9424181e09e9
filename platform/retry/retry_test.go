package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"propensia_dashboard/platform/logger"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), logger.Discard(), "login", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %v after %d calls", err, calls)
	}
}

func TestDoWrapsLastError(t *testing.T) {
	sentinel := errors.New("invalid_grant")
	err := Do(context.Background(), logger.Discard(), "login", 2, time.Millisecond, func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, logger.Discard(), "login", 5, time.Hour, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any call, got %v / %d", err, calls)
	}
}

func TestDoRejectsZeroAttempts(t *testing.T) {
	if err := Do(context.Background(), logger.Discard(), "login", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatalf("expected error for zero attempts")
	}
}
