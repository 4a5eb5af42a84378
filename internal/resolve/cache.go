package resolve

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/model"
)

// LookupCache stores lookup outcomes keyed by query.
type LookupCache interface {
	GetCachedLookup(ctx context.Context, query string) (*model.CachedLookup, error)
	SetCachedLookup(ctx context.Context, query string, match *model.ExternalMatch, ttl time.Duration) error
}

type cachedLookup struct {
	next  Lookup
	cache LookupCache
	ttl   time.Duration
}

// WithCache wraps a Lookup so hits and misses are remembered for ttl.
// Errors are never cached, and a failing cache falls through to the
// wrapped lookup.
func WithCache(next Lookup, cache LookupCache, ttl time.Duration) Lookup {
	return &cachedLookup{next: next, cache: cache, ttl: ttl}
}

func (c *cachedLookup) Lookup(ctx context.Context, query string) (*model.ExternalMatch, error) {
	cached, err := c.cache.GetCachedLookup(ctx, query)
	if err != nil {
		zap.L().Warn("resolve: lookup cache read failed", zap.String("query", query), zap.Error(err))
	} else if cached != nil {
		return cached.Match, nil
	}

	match, err := c.next.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetCachedLookup(ctx, query, match, c.ttl); err != nil {
		zap.L().Warn("resolve: lookup cache write failed", zap.String("query", query), zap.Error(err))
	}
	return match, nil
}
