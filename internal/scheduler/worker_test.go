package scheduler

import (
	"context"
	"errors"
	"testing"

	"propensia_dashboard/platform/logger"

	"github.com/hibiken/asynq"
)

type recordingRescorer struct {
	ids []string
	err error
}

func (r *recordingRescorer) Rescore(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return r.err
}

func TestWorkerHandlesRescoreTask(t *testing.T) {
	rescorer := &recordingRescorer{}
	w := &Worker{rescorer: rescorer, log: logger.Discard()}

	task, err := NewRescoreOpportunityTask(RescoreOpportunityPayload{OpportunityID: "006A"})
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if err := w.handleRescoreOpportunity(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rescorer.ids) != 1 || rescorer.ids[0] != "006A" {
		t.Fatalf("expected rescore of 006A, got %v", rescorer.ids)
	}
}

func TestWorkerSkipsRetryForMalformedPayload(t *testing.T) {
	w := &Worker{rescorer: &recordingRescorer{}, log: logger.Discard()}

	err := w.handleRescoreOpportunity(context.Background(), asynq.NewTask(TaskRescoreOpportunity, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWorkerPropagatesRescoreErrors(t *testing.T) {
	boom := errors.New("crm down")
	w := &Worker{rescorer: &recordingRescorer{err: boom}, log: logger.Discard()}

	task, _ := NewRescoreOpportunityTask(RescoreOpportunityPayload{OpportunityID: "006A"})
	if err := w.handleRescoreOpportunity(context.Background(), task); !errors.Is(err, boom) {
		t.Fatalf("expected error to reach asynq for retry, got %v", err)
	}
}
