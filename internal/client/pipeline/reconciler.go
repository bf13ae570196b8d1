package pipeline

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/logging"
)

type Reconciler struct {
	uploader *Uploader
	interval time.Duration
	logger   logging.Logger
}

func NewReconciler(u *Uploader, interval time.Duration, l logging.Logger) *Reconciler {
	return &Reconciler{uploader: u, interval: interval, logger: l.With("module", "reconciler")}
}

// Report counts the outcome of one reconcile pass.
type Report struct {
	Synced int
	Failed int
}

// RunOnce tries every queued asset once, oldest first. A failing asset is
// marked and the pass moves on to the next one.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var rep Report

	list, err := r.uploader.store.ListPending(ctx)
	if err != nil {
		return rep, err
	}

	for _, a := range list {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}

		if err := r.uploader.Sync(ctx, a); err != nil {
			rep.Failed++
			r.logger.Warn(ctx, "asset sync failed", "id", a.ID, "attempts", a.Attempts+1, "error", err)
			if merr := r.uploader.store.MarkFailed(ctx, a.ID, err); merr != nil {
				r.logger.Error(ctx, "mark failed", "id", a.ID, "error", merr)
			}
			continue
		}
		rep.Synced++
	}
	return rep, nil
}

// Start runs a pass immediately and then once per interval until ctx is
// cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.tick(ctx)
		case <-ctx.Done():
			r.logger.Info(ctx, "reconciler stopped")
			return
		}
	}
}

func (r *Reconciler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	rep, err := r.RunOnce(ctx)
	if err != nil {
		r.logger.Error(ctx, "reconcile pass failed", "error", err)
		return
	}
	if rep.Synced+rep.Failed > 0 {
		r.logger.Info(ctx, "reconcile pass done", "synced", rep.Synced, "failed", rep.Failed)
	}
}
