package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/beer-registry/internal/model"
)

// --- Lookup Mock ---

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, query string) (*model.ExternalMatch, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExternalMatch), args.Error(1)
}

// --- In-memory cache ---

type memCache struct {
	mu       sync.Mutex
	entries  map[string]*model.CachedLookup
	getErr   error
	setErr   error
	setCalls int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*model.CachedLookup)}
}

func (c *memCache) GetCachedLookup(_ context.Context, query string) (*model.CachedLookup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[query], nil
}

func (c *memCache) SetCachedLookup(_ context.Context, query string, match *model.ExternalMatch, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	now := time.Now()
	c.entries[query] = &model.CachedLookup{Query: query, Match: match, CachedAt: now, ExpiresAt: now.Add(ttl)}
	return nil
}
