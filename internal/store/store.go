// Package store persists build runs, published catalogs and the external
// lookup cache.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/beer-registry/internal/model"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = eris.New("not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// Catalog is the product list published by one run.
type Catalog struct {
	RunID     string          `json:"run_id"`
	Products  []model.Product `json:"products"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines the persistence interface for catalog builds.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, opts model.RunOptions) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Catalogs
	SaveCatalog(ctx context.Context, runID string, products []model.Product) error
	// LatestCatalog returns nil when nothing has been saved yet.
	LatestCatalog(ctx context.Context) (*Catalog, error)

	// Lookup cache. A returned CachedLookup with a nil Match is a cached miss.
	GetCachedLookup(ctx context.Context, query string) (*model.CachedLookup, error)
	SetCachedLookup(ctx context.Context, query string, match *model.ExternalMatch, ttl time.Duration) error
	DeleteExpiredLookups(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
