package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propensia_dashboard/internal/crm"
	oppservice "propensia_dashboard/internal/opportunities/service"
	"propensia_dashboard/internal/scheduler"
	"propensia_dashboard/platform/config"
	"propensia_dashboard/platform/logger"
	"propensia_dashboard/platform/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	slog.SetDefault(log.Logger)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	crmClient := crm.New(cfg, log)
	if err := retry.Do(ctx, log, "salesforce login", 5, 2*time.Second, func() error {
		return crmClient.Connect(ctx)
	}); err != nil {
		log.Error("failed to connect to salesforce", "error", err)
		panic("failed to connect to salesforce: " + err.Error())
	}

	// The worker only rescores; next steps are a page concern.
	scores := oppservice.New(crmClient, nil, cfg.GetDashboardPageSize(), log)

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; polling and rescoring inline without a task queue")
		runPoller(ctx, cfg, crmClient, scores, log)
		return
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize rescore task client", "error", err)
		panic("failed to initialize rescore task client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	go runPoller(ctx, cfg, crmClient, client, log)

	worker, err := scheduler.NewWorker(cfg, scores, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func runPoller(ctx context.Context, cfg config.PollerConfig, source scheduler.ModifiedSource, rescorer scheduler.Rescorer, log *logger.Logger) {
	scheduler.NewScorePoller(source, rescorer, log,
		cfg.GetPollInterval(), cfg.GetPollErrorBackoff(), cfg.GetPollWindow(), cfg.GetPollConcurrency()).Run(ctx)
}
