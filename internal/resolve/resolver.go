package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/model"
)

// DefaultLookupTimeout bounds a single external lookup.
const DefaultLookupTimeout = 15 * time.Second

// Lookup searches an external beer database by name. A nil match with a nil
// error means nothing was found.
type Lookup interface {
	Lookup(ctx context.Context, query string) (*model.ExternalMatch, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, query string) (*model.ExternalMatch, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, query string) (*model.ExternalMatch, error) {
	return f(ctx, query)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-lookup timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// Resolver attaches external metadata to products by trying name candidates
// one at a time until a lookup succeeds.
type Resolver struct {
	lookup  Lookup
	timeout time.Duration
}

// NewResolver creates a Resolver backed by the given lookup.
func NewResolver(l Lookup, opts ...Option) *Resolver {
	r := &Resolver{lookup: l, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns p with ExternalMatch set to the first successful lookup
// among its candidates. Lookup errors only advance to the next candidate;
// when every candidate misses, p is returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, p model.Product) model.Product {
	match := r.First(ctx, Candidates(p))
	if match != nil {
		p.ExternalMatch = match
	}
	return p
}

// First tries each candidate in order and returns the first match, or nil.
func (r *Resolver) First(ctx context.Context, candidates []string) *model.ExternalMatch {
	log := zap.L().With(zap.String("component", "resolve"))

	for _, query := range candidates {
		if ctx.Err() != nil {
			return nil
		}

		match, err := r.try(ctx, query)
		if err != nil {
			log.Debug("lookup failed, trying next candidate",
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if match == nil {
			log.Debug("no match", zap.String("query", query))
			continue
		}

		if match.Query == "" {
			match.Query = query
		}
		log.Debug("matched",
			zap.String("query", query),
			zap.String("name", match.Name),
		)
		return match
	}
	return nil
}

func (r *Resolver) try(ctx context.Context, query string) (*model.ExternalMatch, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.lookup.Lookup(ctx, query)
}
