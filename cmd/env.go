package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/beer-registry/internal/fetcher"
	"github.com/sells-group/beer-registry/internal/registry"
	"github.com/sells-group/beer-registry/internal/resolve"
	"github.com/sells-group/beer-registry/internal/store"
	"github.com/sells-group/beer-registry/pkg/ratebeer"
)

// initStore opens and migrates the configured store. It returns nil with
// no error when persistence is disabled.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "beer-registry.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// loadAliases layers the configured aliases and the aliases file over the
// built-in table.
func loadAliases() (registry.Aliases, error) {
	aliases := registry.DefaultAliases().Merge(cfg.AliasMap())
	if cfg.AliasesFile == "" {
		return aliases, nil
	}
	fromFile, err := registry.LoadAliasFile(cfg.AliasesFile)
	if err != nil {
		return registry.Aliases{}, err
	}
	aliases = aliases.Merge(fromFile)
	zap.L().Debug("aliases loaded", zap.String("file", cfg.AliasesFile), zap.Int("count", aliases.Len()))
	return aliases, nil
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Registry.UserAgent,
		Timeout:   cfg.Registry.Timeout(),
	})
}

// newLookup builds the RateBeer lookup, cached in st when a store is
// available and a cache TTL is set.
func newLookup(st store.Store) resolve.Lookup {
	opts := []ratebeer.Option{ratebeer.WithRateLimit(cfg.Enrich.RatePerSec)}
	if cfg.Enrich.BaseURL != "" {
		opts = append(opts, ratebeer.WithBaseURL(cfg.Enrich.BaseURL))
	}
	client := ratebeer.NewClient(cfg.Enrich.APIKey, opts...)

	var lookup resolve.Lookup = resolve.LookupFunc(client.Search)
	if st != nil && cfg.Enrich.CacheTTL() > 0 {
		zap.L().Debug("lookup cache enabled", zap.Duration("ttl", cfg.Enrich.CacheTTL()))
		lookup = resolve.WithCache(lookup, st, cfg.Enrich.CacheTTL())
	}
	return lookup
}

func newResolver(st store.Store) *resolve.Resolver {
	var opts []resolve.Option
	if t := cfg.Enrich.Timeout(); t > 0 {
		opts = append(opts, resolve.WithTimeout(t))
	}
	return resolve.NewResolver(newLookup(st), opts...)
}
