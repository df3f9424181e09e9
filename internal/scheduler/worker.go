package scheduler

import (
	"context"
	"fmt"

	"propensia_dashboard/platform/config"
	"propensia_dashboard/platform/logger"

	"github.com/hibiken/asynq"
)

// Rescorer recomputes and writes back the score of one opportunity.
type Rescorer interface {
	Rescore(ctx context.Context, opportunityID string) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	rescorer Rescorer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, rescorer Rescorer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		rescorer: rescorer,
		log:      log,
	}

	mux.HandleFunc(TaskRescoreOpportunity, w.handleRescoreOpportunity)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleRescoreOpportunity(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescoreOpportunityPayload(task)
	if err != nil {
		// A malformed payload will never succeed.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return w.rescorer.Rescore(ctx, payload.OpportunityID)
}
