package ports

import (
	"context"
	"errors"
	"time"
)

// ErrNoRows is the engine-agnostic no-result sentinel. Each gateway
// implementation maps its driver's sentinel onto this one, so callers never
// import a driver package to test for it.
var ErrNoRows = errors.New("storage: no rows in result set")

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is an iterable result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ReturningQuery describes a mutating statement whose affected row the caller
// wants back. SQL is written in PostgreSQL dialect with a RETURNING clause;
// engines without native support execute the statement and run LookupSQL as
// a follow-up point lookup producing the same columns.
type ReturningQuery struct {
	SQL        string
	Args       []any
	LookupSQL  string
	LookupArgs []any
}

// Querier is the uniform query surface. All SQL is written once, in
// PostgreSQL dialect ($n placeholders, FOR UPDATE, RETURNING); each engine
// adapts it before dispatch.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
	// Exec runs a statement and returns the number of rows affected.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	QueryRowReturning(ctx context.Context, q ReturningQuery) Row
}

// HealthReport describes a gateway round trip and pool occupancy.
type HealthReport struct {
	Engine        string        `json:"engine"`
	RoundTrip     time.Duration `json:"round_trip"`
	AcquiredConns int32         `json:"acquired_conns"`
	TotalConns    int32         `json:"total_conns"`
}

// Gateway is the single storage contract the rest of the system sees. No
// component above this layer holds a raw engine handle or branches on the
// active engine.
type Gateway interface {
	Querier

	// WithinTx opens a transaction, passes a transaction-scoped Querier to fn,
	// commits on normal return and rolls back on error. All writes inside fn
	// are atomic and invisible to other transactions until commit.
	WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error

	// Engine names the active engine ("postgres" or "sqlite").
	Engine() string

	Health(ctx context.Context) (*HealthReport, error)
	Close()
}
