package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"intent-gateway/config"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Gateway implements ports.Gateway on the embedded SQLite fallback engine.
// Statements arrive in PostgreSQL dialect and are adapted before dispatch:
// $n placeholders become ?n, row-locking clauses are dropped (SQLite holds a
// database-level write lock instead), and RETURNING is emulated with a
// follow-up point lookup.
type Gateway struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the single-file database and applies the bundled
// schema. The path ":memory:" yields a private in-memory database.
func Open(ctx context.Context, cfg config.FallbackConfig, log zerolog.Logger) (*Gateway, error) {
	dsn, err := buildDSN(cfg.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// Single writer: serializing connections avoids SQLITE_BUSY and keeps the
	// in-memory variant on one connection so its contents survive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}

	log.Info().Str("path", cfg.Path).Msg("embedded SQLite engine initialized")
	return &Gateway{db: db, log: log}, nil
}

func buildDSN(path string) (string, error) {
	const params = "?_time_format=sqlite&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path == "" || path == ":memory:" {
		return "file::memory:" + params, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating sqlite directory: %w", err)
		}
	}
	return "file:" + path + params, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// classify maps a deadline hit while waiting on the single-writer pool to a
// retryable unavailable error, matching the primary engine's behavior.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrPoolExhausted(err)
	}
	return err
}

func (g *Gateway) Engine() string { return "sqlite" }

func (g *Gateway) Close() { _ = g.db.Close() }

func (g *Gateway) Query(ctx context.Context, query string, args ...any) (ports.Rows, error) {
	rows, err := g.db.QueryContext(ctx, adapt(query), args...)
	if err != nil {
		return nil, classify(err)
	}
	return &sqlRows{rows: rows}, nil
}

func (g *Gateway) QueryRow(ctx context.Context, query string, args ...any) ports.Row {
	return &sqlRow{row: g.db.QueryRowContext(ctx, adapt(query), args...)}
}

func (g *Gateway) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := g.db.ExecContext(ctx, adapt(query), args...)
	if err != nil {
		return 0, classify(err)
	}
	return res.RowsAffected()
}

func (g *Gateway) QueryRowReturning(ctx context.Context, q ports.ReturningQuery) ports.Row {
	return emulateReturning(ctx, g, q)
}

func (g *Gateway) WithinTx(ctx context.Context, fn func(ctx context.Context, q ports.Querier) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(ctx, &txQuerier{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Health executes a trivial query and reports round-trip time and
// connection usage.
func (g *Gateway) Health(ctx context.Context) (*ports.HealthReport, error) {
	start := time.Now()
	var one int
	if err := g.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return nil, err
	}

	stats := g.db.Stats()
	return &ports.HealthReport{
		Engine:        g.Engine(),
		RoundTrip:     time.Since(start),
		AcquiredConns: int32(stats.InUse),
		TotalConns:    int32(stats.OpenConnections),
	}, nil
}

// txQuerier scopes the Querier contract to one open transaction.
type txQuerier struct {
	tx *sql.Tx
}

func (t *txQuerier) Query(ctx context.Context, query string, args ...any) (ports.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, adapt(query), args...)
	if err != nil {
		return nil, err
	}
	return &sqlRows{rows: rows}, nil
}

func (t *txQuerier) QueryRow(ctx context.Context, query string, args ...any) ports.Row {
	return &sqlRow{row: t.tx.QueryRowContext(ctx, adapt(query), args...)}
}

func (t *txQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, adapt(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *txQuerier) QueryRowReturning(ctx context.Context, q ports.ReturningQuery) ports.Row {
	return emulateReturning(ctx, t, q)
}

// emulateReturning executes the mutating statement without its RETURNING
// clause, then performs the point lookup, producing the same row shape as
// engines with native support. Zero affected rows map to ErrNoRows, matching
// native RETURNING on a non-matching conditional update.
func emulateReturning(ctx context.Context, q ports.Querier, rq ports.ReturningQuery) ports.Row {
	affected, err := q.Exec(ctx, stripReturning(rq.SQL), rq.Args...)
	if err != nil {
		return errRow{err: err}
	}
	if affected == 0 {
		return errRow{err: ports.ErrNoRows}
	}
	return q.QueryRow(ctx, rq.LookupSQL, rq.LookupArgs...)
}

type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error { return r.err }

// sqlRow normalizes the driver's no-row sentinel.
type sqlRow struct {
	row *sql.Row
}

func (r *sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNoRows
	}
	if err != nil {
		return classify(err)
	}
	return nil
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool             { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *sqlRows) Err() error             { return classify(r.rows.Err()) }
func (r *sqlRows) Close() error           { return r.rows.Close() }

// adapt rewrites a PostgreSQL-dialect statement for SQLite.
func adapt(query string) string {
	return stripLocking(rewritePlaceholders(query))
}

// rewritePlaceholders turns $n positional parameters into SQLite's ?n form,
// which preserves repeated and out-of-order references.
func rewritePlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// stripLocking removes row-locking clauses SQLite does not support; its
// database-level write lock provides the equivalent guarantee.
func stripLocking(query string) string {
	return strings.ReplaceAll(query, " FOR UPDATE", "")
}

// stripReturning cuts the trailing RETURNING clause off a statement.
func stripReturning(query string) string {
	if idx := strings.Index(query, " RETURNING "); idx >= 0 {
		return query[:idx]
	}
	return query
}
