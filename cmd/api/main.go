package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"propensia_dashboard/internal/crm"
	"propensia_dashboard/internal/email"
	apphttp "propensia_dashboard/internal/http"
	"propensia_dashboard/internal/http/router"
	"propensia_dashboard/internal/initiatives"
	"propensia_dashboard/internal/initiatives/agent"
	"propensia_dashboard/internal/initiatives/drafts"
	"propensia_dashboard/internal/initiatives/ports"
	initservice "propensia_dashboard/internal/initiatives/service"
	"propensia_dashboard/internal/opportunities"
	oppservice "propensia_dashboard/internal/opportunities/service"
	"propensia_dashboard/internal/scheduler"
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/ai/openai"
	"propensia_dashboard/platform/config"
	"propensia_dashboard/platform/httpkit"
	"propensia_dashboard/platform/logger"
	"propensia_dashboard/platform/retry"
	"propensia_dashboard/platform/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	slog.SetDefault(log.Logger)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.UsesDevSecret() && cfg.Env != "development" {
		log.Warn("SECRET_KEY not set; draft batch cookies are signed with the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	crmClient := crm.New(cfg, log)
	if err := retry.Do(ctx, log, "salesforce login", 5, 2*time.Second, func() error {
		return crmClient.Connect(ctx)
	}); err != nil {
		log.Error("failed to connect to salesforce", "error", err)
		panic("failed to connect to salesforce: " + err.Error())
	}
	log.Info("salesforce session established")

	writer, advisor := initAgents(cfg, log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}
	if !cfg.GetEmailEnabled() {
		log.Warn("email provider not configured; approved drafts cannot be sent")
	}

	draftStore, memoryStore, closeStore := initDraftStore(cfg, log)
	if closeStore != nil {
		defer closeStore()
	}

	val := validator.New()

	renderer, err := web.NewRenderer(log)
	if err != nil {
		log.Error("failed to parse templates", "error", err)
		panic("failed to parse templates: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	opportunitiesModule := opportunities.NewModule(crmClient, advisor, cfg.GetDashboardPageSize(), log)

	initiativesModule, err := initiatives.NewModule(crmClient, writer, sender, draftStore, initservice.Options{
		DraftTTL:       cfg.GetDraftTTL(),
		StaleAfterDays: cfg.GetStaleAfterDays(),
	}, log)
	if err != nil {
		log.Error("failed to initialize initiatives module", "error", err)
		panic("failed to initialize initiatives module: " + err.Error())
	}

	// ========================================================================
	// Background Jobs
	// ========================================================================

	rescorer, closeRescorer := initRescorer(cfg, opportunitiesModule.Service(), log)
	if closeRescorer != nil {
		defer closeRescorer()
	}

	if cfg.IsPollerEmbedded() {
		poller := scheduler.NewScorePoller(crmClient, rescorer, log,
			cfg.GetPollInterval(), cfg.GetPollErrorBackoff(), cfg.GetPollWindow(), cfg.GetPollConcurrency())
		go poller.Run(ctx)
	} else {
		log.Info("score poller disabled in the web process; run cmd/scheduler")
	}

	if memoryStore != nil {
		go scheduler.NewDraftCleanup(memoryStore, log, 0).Run(ctx)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:      cfg,
		Logger:      log,
		Health:      crmClient,
		Renderer:    renderer,
		Validator:   val,
		BatchCookie: httpkit.NewBatchCookie(cfg),
		Modules: []apphttp.Module{
			opportunitiesModule,
			initiativesModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initAgents builds the LLM-backed agents. Both results are nil when AI is disabled.
func initAgents(cfg config.AIConfig, log *logger.Logger) (ports.FollowUpWriter, oppservice.NextStepsAdvisor) {
	if !cfg.IsAIEnabled() {
		log.Warn("OPENAI_API_KEY not configured; AI drafting and next steps disabled")
		return nil, nil
	}

	llm := openai.NewModel(openai.Config{
		APIKey:  cfg.GetOpenAIAPIKey(),
		BaseURL: cfg.GetOpenAIBaseURL(),
		Model:   cfg.GetOpenAIModel(),
	})

	var writer ports.FollowUpWriter
	if w, err := agent.NewFollowUpWriter(llm); err != nil {
		log.Error("failed to initialize follow-up writer", "error", err)
	} else {
		writer = w
	}

	var advisor oppservice.NextStepsAdvisor
	if a, err := agent.NewNextStepsAdvisor(llm); err != nil {
		log.Error("failed to initialize next steps advisor", "error", err)
	} else {
		advisor = a
	}

	return writer, advisor
}

// initDraftStore returns the Redis store when REDIS_URL is set and the
// in-memory store otherwise. The memory store is also returned so its
// expired batches can be purged.
func initDraftStore(cfg config.SchedulerConfig, log *logger.Logger) (drafts.Store, *drafts.MemoryStore, func()) {
	if cfg.GetRedisURL() != "" {
		store, err := drafts.NewRedisStoreFromURL(cfg.GetRedisURL())
		if err == nil {
			log.Info("email drafts stored in redis")
			return store, nil, func() { _ = store.Close() }
		}
		log.Error("failed to initialize redis draft store; falling back to memory", "error", err)
	}

	store := drafts.NewMemoryStore()
	return store, store, nil
}

// initRescorer enqueues rescore tasks when Redis is configured so a worker
// process can absorb the CRM writes; otherwise the poller rescores inline.
func initRescorer(cfg config.SchedulerConfig, direct scheduler.Rescorer, log *logger.Logger) (scheduler.Rescorer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Info("REDIS_URL not configured; rescoring inline")
		return direct, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize rescore task client; rescoring inline", "error", err)
		return direct, nil
	}

	return client, func() {
		_ = client.Close()
	}
}
