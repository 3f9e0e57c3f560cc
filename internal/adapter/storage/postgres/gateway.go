package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intent-gateway/config"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Pool is the subset of pgxpool.Pool the gateway uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Gateway implements ports.Gateway on the primary PostgreSQL engine.
// SQL is already in native dialect, so queries pass through unrewritten and
// RETURNING is executed natively.
type Gateway struct {
	pool         Pool
	queryTimeout time.Duration
	log          zerolog.Logger
}

// Open connects a pool and verifies connectivity within ctx. The caller
// bounds ctx with the configured connect timeout.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*Gateway, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("dbname", cfg.DBName).
		Int32("max_conns", cfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return NewWithPool(pool, cfg.QueryTimeout, log), nil
}

// NewWithPool wraps an existing pool (or a pgxmock pool in tests).
func NewWithPool(pool Pool, queryTimeout time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{pool: pool, queryTimeout: queryTimeout, log: log}
}

func (g *Gateway) Engine() string { return "postgres" }

func (g *Gateway) Close() { g.pool.Close() }

// opCtx bounds a single operation so a saturated pool surfaces as a timeout
// instead of an unbounded wait.
func (g *Gateway) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.queryTimeout)
}

// classify maps a deadline hit while waiting on the pool to a retryable
// unavailable error so callers can distinguish it from a query failure.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrPoolExhausted(err)
	}
	return err
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	// Rows are consumed after this returns, so cancellation is tied to Close.
	ctx, cancel := g.opCtx(ctx)
	rows, err := g.pool.Query(ctx, sql, args...)
	if err != nil {
		cancel()
		return nil, classify(err)
	}
	return &pgxRows{rows: rows, cancel: cancel}, nil
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	// pgx reads the result during Scan, so cancellation is tied to Scan.
	ctx, cancel := g.opCtx(ctx)
	return &pgxRow{row: g.pool.QueryRow(ctx, sql, args...), cancel: cancel}
}

func (g *Gateway) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	tag, err := g.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func (g *Gateway) QueryRowReturning(ctx context.Context, q ports.ReturningQuery) ports.Row {
	// Native RETURNING support: the statement already carries the clause.
	return g.QueryRow(ctx, q.SQL, q.Args...)
}

// WithinTx runs fn inside a transaction, committing on nil and rolling back
// on error. The transaction handle is the single Querier fn may use.
func (g *Gateway) WithinTx(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, &txQuerier{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Health executes a trivial query and reports round-trip time plus pool
// occupancy when the underlying pool exposes stats.
func (g *Gateway) Health(ctx context.Context) (*ports.HealthReport, error) {
	start := time.Now()
	var one int
	if err := g.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return nil, err
	}

	report := &ports.HealthReport{
		Engine:    g.Engine(),
		RoundTrip: time.Since(start),
	}
	if s, ok := g.pool.(interface{ Stat() *pgxpool.Stat }); ok {
		stat := s.Stat()
		report.AcquiredConns = stat.AcquiredConns()
		report.TotalConns = stat.TotalConns()
	}
	return report, nil
}

// txQuerier scopes the Querier contract to one open transaction.
type txQuerier struct {
	tx pgx.Tx
}

func (t *txQuerier) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (t *txQuerier) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	return &pgxRow{row: t.tx.QueryRow(ctx, sql, args...)}
}

func (t *txQuerier) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t *txQuerier) QueryRowReturning(ctx context.Context, q ports.ReturningQuery) ports.Row {
	return t.QueryRow(ctx, q.SQL, q.Args...)
}

// pgxRow normalizes the driver's no-row sentinel.
type pgxRow struct {
	row    pgx.Row
	cancel context.CancelFunc
}

func (r *pgxRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if r.cancel != nil {
		r.cancel()
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.ErrNoRows
	}
	if err != nil {
		return classify(err)
	}
	return nil
}

type pgxRows struct {
	rows   pgx.Rows
	cancel context.CancelFunc
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error             { return classify(r.rows.Err()) }
func (r *pgxRows) Close() error {
	r.rows.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return nil
}
