// Package jobs runs the service's periodic maintenance work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type expiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the idempotency-cache expiry job on schedule, which
// accepts standard five-field specs and descriptors such as "@every 1h".
func NewScheduler(schedule string, cache expiredCleaner, timeout time.Duration) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if _, err := c.AddFunc(schedule, func() { CleanIdempotencyCache(cache, timeout) }); err != nil {
		return nil, fmt.Errorf("NewScheduler: %q: %w", schedule, err)
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func CleanIdempotencyCache(cache expiredCleaner, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := cache.CleanExpired(ctx)
	if err != nil {
		slog.Error("idempotency cache cleanup failed", "error", err)
		return
	}
	slog.Info("idempotency cache cleaned", "removed", n)
}
