package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/beer-registry/internal/db"
	"github.com/sells-group/beer-registry/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	options    JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	result     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS catalogs (
	run_id        TEXT PRIMARY KEY REFERENCES runs(id),
	products      JSONB NOT NULL,
	product_count INTEGER NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS catalog_products (
	run_id         TEXT NOT NULL REFERENCES catalogs(run_id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	uid            TEXT NOT NULL,
	product_name   TEXT NOT NULL,
	producer_name  TEXT NOT NULL,
	reg_entry_date DATE NOT NULL,
	capacities     TEXT[] NOT NULL,
	rb             JSONB,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS lookup_cache (
	query      TEXT PRIMARY KEY,
	match      JSONB,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_catalogs_created_at ON catalogs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_catalog_products_uid ON catalog_products(uid);
CREATE INDEX IF NOT EXISTS idx_lookup_cache_expires_at ON lookup_cache(expires_at);
`

// catalogProductColumns are the columns filled by COPY in SaveCatalog.
var catalogProductColumns = []string{
	"run_id", "position", "uid", "product_name", "producer_name",
	"reg_entry_date", "capacities", "rb",
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, opts model.RunOptions) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal options")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, options, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, optsJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Options:   opts,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		errorText(runErr), string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, options, status, result, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, options, status, result, error, created_at, updated_at FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveCatalog stores the catalog as one JSON document and copies each
// product into catalog_products, in a single transaction.
func (s *PostgresStore) SaveCatalog(ctx context.Context, runID string, products []model.Product) error {
	productsJSON, err := json.Marshal(products)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal catalog")
	}

	rows := make([][]any, 0, len(products))
	for i, p := range products {
		var rb []byte
		if p.ExternalMatch != nil {
			if rb, err = json.Marshal(p.ExternalMatch); err != nil {
				return eris.Wrap(err, "postgres: marshal match")
			}
		}
		rows = append(rows, []any{
			runID, i, p.Identity, p.ProductName, p.ProducerName,
			p.RegEntryDate.Time, p.Capacities, rb,
		})
	}

	err = db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO catalogs (run_id, products, product_count, created_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id) DO UPDATE SET products = $2, product_count = $3, created_at = $4`,
			runID, productsJSON, len(products), time.Now().UTC(),
		); err != nil {
			return eris.Wrap(err, "insert catalog")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_products WHERE run_id = $1`, runID); err != nil {
			return eris.Wrap(err, "clear catalog products")
		}
		_, err := db.CopyFrom(ctx, tx, "catalog_products", catalogProductColumns, rows)
		return err
	})
	return eris.Wrapf(err, "postgres: save catalog for run %s", runID)
}

func (s *PostgresStore) LatestCatalog(ctx context.Context) (*Catalog, error) {
	var c Catalog
	var productsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT run_id, products, created_at FROM catalogs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&c.RunID, &productsJSON, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: latest catalog")
	}
	if err := json.Unmarshal(productsJSON, &c.Products); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal catalog")
	}
	return &c, nil
}

func (s *PostgresStore) GetCachedLookup(ctx context.Context, query string) (*model.CachedLookup, error) {
	cl := model.CachedLookup{Query: query}
	var matchJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT match, cached_at, expires_at FROM lookup_cache
		 WHERE query = $1 AND expires_at > now()`,
		query,
	).Scan(&matchJSON, &cl.CachedAt, &cl.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached lookup")
	}
	if matchJSON != nil {
		cl.Match = &model.ExternalMatch{}
		if err := json.Unmarshal(matchJSON, cl.Match); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal cached match")
		}
	}
	return &cl, nil
}

func (s *PostgresStore) SetCachedLookup(ctx context.Context, query string, match *model.ExternalMatch, ttl time.Duration) error {
	now := time.Now().UTC()

	var matchJSON []byte
	if match != nil {
		var err error
		if matchJSON, err = json.Marshal(match); err != nil {
			return eris.Wrap(err, "postgres: marshal match")
		}
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO lookup_cache (query, match, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (query) DO UPDATE SET match = $2, cached_at = $3, expires_at = $4`,
		query, matchJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached lookup")
}

func (s *PostgresStore) DeleteExpiredLookups(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lookup_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired lookups")
	}
	return int(tag.RowsAffected()), nil
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var optsJSON, resultJSON []byte
	var errText *string

	if err := row.Scan(&r.ID, &optsJSON, &r.Status, &resultJSON, &errText, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optsJSON, &r.Options); err != nil {
		return nil, eris.Wrap(err, "unmarshal options")
	}
	if resultJSON != nil {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal result")
		}
	}
	if errText != nil {
		r.Error = *errText
	}
	return &r, nil
}
