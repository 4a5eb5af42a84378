// Package pipeline runs a catalog build end to end: download the registry
// feed, consolidate variants, order the catalog and optionally enrich it.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/catalog"
	"github.com/sells-group/beer-registry/internal/fetcher"
	"github.com/sells-group/beer-registry/internal/model"
	"github.com/sells-group/beer-registry/internal/registry"
	"github.com/sells-group/beer-registry/internal/resolve"
	"github.com/sells-group/beer-registry/internal/store"
)

// Options are the per-build parameters.
type Options struct {
	FeedURL     string
	Filter      registry.Filter
	Aliases     registry.Aliases
	WindowWeeks int
	Enrich      bool

	// Publish, when set, writes the artifacts of a finished build and
	// returns their paths. The run is marked complete only once it succeeds.
	Publish func(ctx context.Context, res *Result) ([]string, error)
}

// Result is the outcome of one build.
type Result struct {
	RunID       string
	Products    []model.Product
	Records     int
	Enriched    int
	Stats       registry.Stats
	GeneratedAt time.Time
	Duration    time.Duration
	Files       []string
}

// Pipeline builds the catalog.
type Pipeline struct {
	opts       Options
	fetcher    fetcher.Fetcher
	resolver   *resolve.Resolver
	store      store.Store
	onEnriched func(done, total int)
	now        func() time.Time
}

// New creates a Pipeline. resolver may be nil when enrichment is off, and st
// may be nil to skip run bookkeeping.
func New(opts Options, f fetcher.Fetcher, resolver *resolve.Resolver, st store.Store) *Pipeline {
	return &Pipeline{
		opts:     opts,
		fetcher:  f,
		resolver: resolver,
		store:    st,
		now:      time.Now,
	}
}

// OnEnriched registers a callback invoked after each product's lookup.
func (p *Pipeline) OnEnriched(fn func(done, total int)) {
	p.onEnriched = fn
}

// Run downloads the feed and builds the catalog from it.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	run := p.startRun(ctx)

	body, err := p.fetcher.Download(ctx, p.opts.FeedURL)
	if err != nil {
		err = eris.Wrap(err, "pipeline: download feed")
		p.failRun(ctx, run, err)
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	return p.build(ctx, run, body)
}

// RunReader builds the catalog from an already opened feed.
func (p *Pipeline) RunReader(ctx context.Context, r io.Reader) (*Result, error) {
	return p.build(ctx, p.startRun(ctx), r)
}

func (p *Pipeline) build(ctx context.Context, run *model.Run, r io.Reader) (*Result, error) {
	start := p.now()
	log := zap.L().With(zap.String("feed", p.opts.FeedURL))
	if run != nil {
		log = log.With(zap.String("run_id", run.ID))
	}
	log.Info("pipeline: starting build")

	records, stats, err := registry.Ingest(ctx, r, p.opts.Filter, p.opts.Aliases)
	if err != nil {
		err = eris.Wrap(err, "pipeline: ingest feed")
		p.failRun(ctx, run, err)
		return nil, err
	}

	products := catalog.NewConsolidator(p.opts.WindowWeeks).Consolidate(records)
	catalog.Sort(products)
	log.Info("pipeline: catalog consolidated",
		zap.Int("records", len(records)),
		zap.Int("products", len(products)),
	)

	enriched := 0
	if p.opts.Enrich && p.resolver != nil {
		enriched = p.enrich(ctx, products)
		if err := ctx.Err(); err != nil {
			err = eris.Wrap(err, "pipeline: enrichment interrupted")
			p.failRun(ctx, run, err)
			return nil, err
		}
		log.Info("pipeline: enrichment complete",
			zap.Int("enriched", enriched),
			zap.Int("products", len(products)),
		)
	}

	res := &Result{
		Products:    products,
		Records:     len(records),
		Enriched:    enriched,
		Stats:       stats,
		GeneratedAt: p.now().UTC(),
	}
	res.Duration = res.GeneratedAt.Sub(start)
	if run != nil {
		res.RunID = run.ID
	}

	if p.opts.Publish != nil {
		files, err := p.opts.Publish(ctx, res)
		if err != nil {
			err = eris.Wrap(err, "pipeline: publish catalog")
			p.failRun(ctx, run, err)
			return nil, err
		}
		res.Files = files
	}
	p.completeRun(ctx, run, res)

	log.Info("pipeline: build complete", zap.Duration("duration", res.Duration))
	return res, nil
}

// enrich resolves every product in catalog order, one at a time.
func (p *Pipeline) enrich(ctx context.Context, products []model.Product) int {
	enriched := 0
	for i := range products {
		if ctx.Err() != nil {
			break
		}
		products[i] = p.resolver.Resolve(ctx, products[i])
		if products[i].Enriched() {
			enriched++
		}
		if p.onEnriched != nil {
			p.onEnriched(i+1, len(products))
		}
	}
	return enriched
}
