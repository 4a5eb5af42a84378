package pipeline

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/beer-registry/internal/model"
	"github.com/sells-group/beer-registry/internal/store"
)

// --- Fetcher Mock ---

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

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

// --- Store Mock ---

// mockStore implements only the run and catalog calls a build makes.
type mockStore struct {
	store.Store
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, opts model.RunOptions) (*model.Run, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	return m.Called(ctx, runID, result).Error(0)
}

func (m *mockStore) FailRun(ctx context.Context, runID string, runErr error) error {
	return m.Called(ctx, runID, runErr).Error(0)
}

func (m *mockStore) SaveCatalog(ctx context.Context, runID string, products []model.Product) error {
	return m.Called(ctx, runID, products).Error(0)
}
