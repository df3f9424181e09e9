package scheduler

import (
	"testing"

	"github.com/hibiken/asynq"
)

func TestRescoreTaskPayload(t *testing.T) {
	task, err := NewRescoreOpportunityTask(RescoreOpportunityPayload{OpportunityID: "006A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskRescoreOpportunity {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	payload, err := ParseRescoreOpportunityPayload(task)
	if err != nil || payload.OpportunityID != "006A" {
		t.Fatalf("unexpected payload %+v / %v", payload, err)
	}

	if _, err := ParseRescoreOpportunityPayload(asynq.NewTask(TaskRescoreOpportunity, []byte(`{}`))); err == nil {
		t.Fatalf("expected empty opportunity id to be rejected")
	}
}

func TestRedisClientOptParsesURL(t *testing.T) {
	opt, err := redisClientOpt("rediss://:pw@cache.internal:6380/2", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "cache.internal:6380" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected opt %+v", opt)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
}
