package scheduler

import (
	"context"
	"time"

	"propensia_dashboard/platform/logger"

	"golang.org/x/sync/errgroup"
)

const (
	defaultPollInterval     = 5 * time.Minute
	defaultPollErrorBackoff = time.Minute
	defaultPollConcurrency  = 4
)

// ModifiedSource lists opportunities modified recently. A zero since means
// "modified today".
type ModifiedSource interface {
	RecentlyModifiedIDs(ctx context.Context, since time.Time) ([]string, error)
}

// ScorePoller periodically rescores recently modified opportunities.
type ScorePoller struct {
	source      ModifiedSource
	rescorer    Rescorer
	log         *logger.Logger
	interval    time.Duration
	backoff     time.Duration
	window      time.Duration
	concurrency int
	now         func() time.Time
}

// NewScorePoller creates a poller. A window of 0 polls records modified today.
func NewScorePoller(source ModifiedSource, rescorer Rescorer, log *logger.Logger, interval, backoff, window time.Duration, concurrency int) *ScorePoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if backoff <= 0 {
		backoff = defaultPollErrorBackoff
	}
	if concurrency < 1 {
		concurrency = defaultPollConcurrency
	}

	return &ScorePoller{
		source:      source,
		rescorer:    rescorer,
		log:         log,
		interval:    interval,
		backoff:     backoff,
		window:      window,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Run ticks immediately, then every interval until ctx is cancelled. After a
// failed query the next tick comes after the backoff instead.
func (p *ScorePoller) Run(ctx context.Context) {
	if p == nil || p.source == nil || p.rescorer == nil {
		return
	}

	p.log.Info("score poller started", "interval", p.interval.String(), "window", p.window.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("score poller stopped")
			return
		case <-timer.C:
		}

		wait := p.interval
		if err := p.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.log.Error("score poller query failed", "error", err, "retry_in", p.backoff.String())
			wait = p.backoff
		}
		timer.Reset(wait)
	}
}

// Tick runs one polling iteration. Only the query error is returned;
// per-record failures are logged and do not stop the other records.
func (p *ScorePoller) Tick(ctx context.Context) error {
	var since time.Time
	if p.window > 0 {
		since = p.now().Add(-p.window)
	}

	ids, err := p.source.RecentlyModifiedIDs(ctx, since)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		p.log.Debug("score poller found no modified opportunities")
		return nil
	}

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := p.rescorer.Rescore(ctx, id); err != nil {
				p.log.Error("rescore dispatch failed", "opportunity_id", id, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	p.log.Info("score poller tick complete", "opportunities", len(ids))
	return nil
}
