package service

import (
	"context"
	"testing"
	"time"

	"intent-gateway/internal/adapter/storage/redis"
	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntent_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	created, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
		MerchantID:  m.ID,
		AmountSats:  50_000,
		Description: "two coffees",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Contains(t, created.ClientSecret, created.ID+"_secret_")
	assert.Equal(t, domain.IntentStatusPending, created.Status)
	assert.Equal(t, int64(50_000), created.AmountSats)
	assert.Equal(t, int64(500), created.FeeSats, "fee at 100 bps")
	assert.WithinDuration(t, created.CreatedAt.Add(time.Hour), created.ExpiresAt, time.Second)

	got, err := env.ledger.GetIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.MerchantID, got.MerchantID)
	assert.Equal(t, created.AmountSats, got.AmountSats)
	assert.Equal(t, created.FeeSats, got.FeeSats)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Status, got.Status)

	// Creation leaves a single audit event behind.
	events, err := env.audit.ListByIntent(ctx, env.gw, created.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.AuditEventCreated, events[0].EventType)
}

func TestCreateIntent_CustomTTL(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)

	created, err := env.ledger.CreateIntent(context.Background(), ports.CreateIntentRequest{
		MerchantID: m.ID,
		AmountSats: 10_000,
		TTL:        10 * time.Minute,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, created.CreatedAt.Add(10*time.Minute), created.ExpiresAt, time.Second)
}

func TestCreateIntent_AmountBelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -5, 999} {
		_, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
			MerchantID: m.ID,
			AmountSats: amount,
		})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation), "amount %d must be rejected", amount)
	}

	// Nothing was persisted.
	var count int
	require.NoError(t, env.gw.QueryRow(ctx, "SELECT COUNT(*) FROM payment_intents").Scan(&count))
	assert.Zero(t, count)
}

func TestCreateIntent_AmountAboveSupplyCap(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	_, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
		MerchantID: m.ID,
		AmountSats: domain.MaxAmountSats + 1,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	// The cap itself is accepted with a non-negative fee.
	intent, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
		MerchantID: m.ID,
		AmountSats: domain.MaxAmountSats,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, intent.FeeSats, int64(0))
}

func TestCreateIntent_UnknownMerchant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.CreateIntent(context.Background(), ports.CreateIntentRequest{
		MerchantID: uuid.New(),
		AmountSats: 10_000,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetIntent_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.GetIntent(context.Background(), "pi_000000000000000000000000")
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestGetIntent_StorageDeadlineIsRetryable(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)

	intent, err := env.ledger.CreateIntent(context.Background(), ports.CreateIntentRequest{
		MerchantID: m.ID,
		AmountSats: 10_000,
	})
	require.NoError(t, err)

	// A deadline already in the past makes the driver report the wait as
	// exceeded, the same shape an exhausted pool produces.
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err = env.ledger.GetIntent(ctx, intent.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindUnavailable))
	assert.False(t, apperror.IsKind(err, apperror.KindInternal))
}

func TestListByMerchant_Pagination(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
			MerchantID: m.ID,
			AmountSats: 10_000 + int64(i),
		})
		require.NoError(t, err)
	}

	page, total, err := env.ledger.ListByMerchant(ctx, m.ID, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 3)

	rest, total, err := env.ledger.ListByMerchant(ctx, m.ID, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, rest, 2)

	// Default limit kicks in for non-positive values.
	all, _, err := env.ledger.ListByMerchant(ctx, m.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestGetIntent_CachesTerminalOnly(t *testing.T) {
	env := newTestEnv(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	env.ledger.cache = redis.NewIntentCache(client)

	m := env.seedMerchant(t)
	ctx := context.Background()

	created, err := env.ledger.CreateIntent(ctx, ports.CreateIntentRequest{
		MerchantID: m.ID,
		AmountSats: 20_000,
	})
	require.NoError(t, err)

	// Pending intents are mutable and must not be cached.
	_, err = env.ledger.GetIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("intent:"+created.ID))

	_, err = env.confirm.Confirm(ctx, created.ID, testAddress, testRef)
	require.NoError(t, err)
	_, err = env.settle.Settle(ctx, ports.SettlementRequest{IntentID: created.ID, Outcome: domain.SettlementSucceeded})
	require.NoError(t, err)

	// Terminal rows are immutable, so the read-through cache picks them up.
	got, err := env.ledger.GetIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSucceeded, got.Status)
	assert.True(t, mr.Exists("intent:"+created.ID))

	// Subsequent reads are served from the cache.
	cached, err := env.ledger.GetIntent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, cached.ID)
	assert.Equal(t, got.Status, cached.Status)
}
