// Package scheduler triggers the release cycle on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/services"
)

type cycleRunner interface {
	Run(ctx context.Context) (*services.Summary, error)
}

type Scheduler struct {
	runner   cycleRunner
	interval time.Duration
	logger   logging.Logger
}

func New(r cycleRunner, interval time.Duration, l logging.Logger) *Scheduler {
	return &Scheduler{runner: r, interval: interval, logger: l.With("module", "scheduler")}
}

// Start runs one cycle immediately and then one per interval until ctx is
// cancelled. A failed cycle is logged and the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) {

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			s.logger.Info(ctx, "scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	sum, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error(ctx, "release cycle failed", "error", err)
		return
	}

	s.logger.Info(ctx, "release cycle done",
		"warning_processed", sum.WarningPhase.Processed,
		"release_processed", sum.ReleasePhase.Processed,
		"failed", countFailed(sum))
}

func countFailed(sum *services.Summary) int {
	n := 0
	for _, p := range []services.PhaseSummary{sum.WarningPhase, sum.ReleasePhase} {
		for _, r := range p.Results {
			if r.Outcome == services.OutcomeFailed || r.Error != "" {
				n++
				continue
			}
			for _, b := range r.Beneficiaries {
				if b.Error != "" || b.Outcome == services.OutcomeFailed {
					n++
					break
				}
			}
		}
	}
	return n
}
