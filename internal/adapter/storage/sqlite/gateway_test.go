package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"intent-gateway/config"
	"intent-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	gw, err := Open(context.Background(), config.FallbackConfig{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(gw.Close)
	return gw
}

func TestRewritePlaceholders(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"single", "SELECT * FROM t WHERE id = $1", "SELECT * FROM t WHERE id = ?1"},
		{"multiple", "INSERT INTO t VALUES ($1, $2, $3)", "INSERT INTO t VALUES (?1, ?2, ?3)"},
		{"repeated", "UPDATE t SET a = $2 WHERE id = $1 AND b > $2", "UPDATE t SET a = ?2 WHERE id = ?1 AND b > ?2"},
		{"double digit", "SELECT $10, $11", "SELECT ?10, ?11"},
		{"dollar without digit", "SELECT '$' FROM t", "SELECT '$' FROM t"},
		{"trailing dollar", "SELECT 1 $", "SELECT 1 $"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rewritePlaceholders(tt.in))
		})
	}
}

func TestStripLocking(t *testing.T) {
	q := "SELECT * FROM payment_intents WHERE id = $1 FOR UPDATE"
	assert.Equal(t, "SELECT * FROM payment_intents WHERE id = $1", stripLocking(q))
	assert.Equal(t, "SELECT 1", stripLocking("SELECT 1"))
}

func TestStripReturning(t *testing.T) {
	q := "UPDATE t SET a = $1 WHERE id = $2 RETURNING id, a"
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", stripReturning(q))
	assert.Equal(t, "DELETE FROM t", stripReturning("DELETE FROM t"))
}

func TestOpen_AppliesSchema(t *testing.T) {
	gw := newTestGateway(t)

	// All three tables exist after Open.
	for _, table := range []string{"merchants", "payment_intents", "audit_events"} {
		var name string
		err := gw.QueryRow(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = $1", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
		assert.Equal(t, table, name)
	}
}

func TestGateway_ExecAndQueryRow(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	now := time.Now().UTC()
	affected, err := gw.Exec(ctx,
		"INSERT INTO merchants (id, name, email, settlement_address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
		"0b2f1f5e-0000-0000-0000-000000000001", "Shop", "shop@example.com", "bc1qexampleaddressexampleaddressexampleaddr", now, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var name string
	err = gw.QueryRow(ctx, "SELECT name FROM merchants WHERE id = $1",
		"0b2f1f5e-0000-0000-0000-000000000001").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "Shop", name)
}

func TestGateway_QueryRow_NoRows(t *testing.T) {
	gw := newTestGateway(t)

	var name string
	err := gw.QueryRow(context.Background(), "SELECT name FROM merchants WHERE id = $1", "nope").Scan(&name)
	assert.ErrorIs(t, err, ports.ErrNoRows)
}

func TestGateway_WithinTx_RollbackOnError(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := gw.WithinTx(ctx, func(ctx context.Context, q ports.Querier) error {
		now := time.Now().UTC()
		_, err := q.Exec(ctx,
			"INSERT INTO merchants (id, name, email, settlement_address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
			"0b2f1f5e-0000-0000-0000-000000000002", "Doomed", "doomed@example.com", "bc1qexampleaddressexampleaddressexampleaddr", now, now)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, gw.QueryRow(ctx, "SELECT COUNT(*) FROM merchants").Scan(&count))
	assert.Equal(t, 0, count, "rolled-back insert must not be visible")
}

func TestGateway_QueryRowReturning_Emulated(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := gw.Exec(ctx,
		"INSERT INTO merchants (id, name, email, settlement_address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
		"0b2f1f5e-0000-0000-0000-000000000003", "Shop", "shop@example.com", "bc1qexampleaddressexampleaddressexampleaddr", now, now)
	require.NoError(t, err)

	row := gw.QueryRowReturning(ctx, ports.ReturningQuery{
		SQL:        "UPDATE merchants SET name = $2 WHERE id = $1 RETURNING id, name",
		Args:       []any{"0b2f1f5e-0000-0000-0000-000000000003", "Renamed"},
		LookupSQL:  "SELECT id, name FROM merchants WHERE id = $1",
		LookupArgs: []any{"0b2f1f5e-0000-0000-0000-000000000003"},
	})

	var id, name string
	require.NoError(t, row.Scan(&id, &name))
	assert.Equal(t, "Renamed", name)
}

func TestGateway_QueryRowReturning_NoMatch(t *testing.T) {
	gw := newTestGateway(t)

	row := gw.QueryRowReturning(context.Background(), ports.ReturningQuery{
		SQL:        "UPDATE merchants SET name = $2 WHERE id = $1 RETURNING id, name",
		Args:       []any{"missing", "Renamed"},
		LookupSQL:  "SELECT id, name FROM merchants WHERE id = $1",
		LookupArgs: []any{"missing"},
	})

	var id, name string
	assert.ErrorIs(t, row.Scan(&id, &name), ports.ErrNoRows)
}

func TestGateway_Health(t *testing.T) {
	gw := newTestGateway(t)

	report, err := gw.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", report.Engine)
}
