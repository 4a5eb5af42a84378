package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/model"
)

// Run bookkeeping never fails a build: store errors are logged and the
// build carries on.

func (p *Pipeline) startRun(ctx context.Context) *model.Run {
	if p.store == nil {
		return nil
	}
	opts := model.RunOptions{
		FeedURL:      p.opts.FeedURL,
		ProductClass: p.opts.Filter.ProductClass,
		Enrich:       p.opts.Enrich,
	}
	if !p.opts.Filter.Since.IsZero() {
		since := p.opts.Filter.Since
		opts.Since = &since
	}

	run, err := p.store.CreateRun(ctx, opts)
	if err != nil {
		zap.L().Warn("pipeline: failed to record run", zap.Error(err))
		return nil
	}
	return run
}

func (p *Pipeline) failRun(ctx context.Context, run *model.Run, runErr error) {
	if run == nil {
		return
	}
	// The build context may already be cancelled; the failure should still land.
	if err := p.store.FailRun(context.WithoutCancel(ctx), run.ID, runErr); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (p *Pipeline) completeRun(ctx context.Context, run *model.Run, res *Result) {
	if run == nil {
		return
	}
	if err := p.store.SaveCatalog(ctx, run.ID, res.Products); err != nil {
		zap.L().Warn("pipeline: failed to save catalog", zap.String("run_id", run.ID), zap.Error(err))
	}
	result := &model.RunResult{
		Records:    res.Records,
		Products:   len(res.Products),
		Enriched:   res.Enriched,
		Duration:   res.Duration,
		FinishedAt: res.GeneratedAt,
	}
	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		zap.L().Warn("pipeline: failed to complete run", zap.String("run_id", run.ID), zap.Error(err))
	}
}
