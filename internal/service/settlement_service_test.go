package service

import (
	"context"
	"testing"

	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) seedProcessingIntent(t *testing.T, m *domain.Merchant, amount int64) *domain.PaymentIntent {
	t.Helper()
	ctx := context.Background()
	created, err := e.ledger.CreateIntent(ctx, ports.CreateIntentRequest{MerchantID: m.ID, AmountSats: amount})
	require.NoError(t, err)
	confirmed, err := e.confirm.Confirm(ctx, created.ID, testAddress, testRef)
	require.NoError(t, err)
	return confirmed
}

func TestSettle_Succeeded(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	intent := env.seedProcessingIntent(t, m, 50_000)

	settled, err := env.settle.Settle(ctx, ports.SettlementRequest{
		IntentID: intent.ID,
		Outcome:  domain.SettlementSucceeded,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSucceeded, settled.Status)
	assert.NotNil(t, settled.SucceededAt)

	// Merchant counters moved once.
	got, err := env.merchantSvc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got.TotalProcessed)
	assert.Equal(t, int64(500), got.FeeCollected)
	assert.Equal(t, int64(1), got.PaymentsCount)
	assert.Equal(t, int64(1), got.SuccessfulPayments)

	events, err := env.audit.ListByIntent(ctx, env.gw, intent.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.AuditEventSettled, events[2].EventType)
}

func TestSettle_Failed(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	intent := env.seedProcessingIntent(t, m, 50_000)

	settled, err := env.settle.Settle(ctx, ports.SettlementRequest{
		IntentID: intent.ID,
		Outcome:  domain.SettlementFailed,
		Details:  "insufficient funds",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusPaymentFailed, settled.Status)
	require.NotNil(t, settled.FailureReason)
	assert.Equal(t, "insufficient funds", *settled.FailureReason)

	// The attempt counts, the value counters stay put.
	got, err := env.merchantSvc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.TotalProcessed)
	assert.Zero(t, got.FeeCollected)
	assert.Equal(t, int64(1), got.PaymentsCount)
	assert.Zero(t, got.SuccessfulPayments)

	events, err := env.audit.ListByIntent(ctx, env.gw, intent.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, domain.AuditEventSettlementFailed, events[2].EventType)
}

func TestSettle_Replay(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	intent := env.seedProcessingIntent(t, m, 50_000)
	req := ports.SettlementRequest{IntentID: intent.ID, Outcome: domain.SettlementSucceeded}

	first, err := env.settle.Settle(ctx, req)
	require.NoError(t, err)

	// The replay acknowledges the terminal row without touching anything.
	second, err := env.settle.Settle(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.IntentStatusSucceeded, second.Status)

	got, err := env.merchantSvc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), got.TotalProcessed, "counters move exactly once")
	assert.Equal(t, int64(1), got.PaymentsCount)

	events, err := env.audit.ListByIntent(ctx, env.gw, intent.ID)
	require.NoError(t, err)
	assert.Len(t, events, 3, "no duplicate audit event on replay")
}

func TestSettle_ReplayWithOppositeOutcome(t *testing.T) {
	env := newTestEnv(t)
	m := env.seedMerchant(t)
	ctx := context.Background()

	intent := env.seedProcessingIntent(t, m, 50_000)

	_, err := env.settle.Settle(ctx, ports.SettlementRequest{IntentID: intent.ID, Outcome: domain.SettlementSucceeded})
	require.NoError(t, err)

	// A contradictory retry does not rewrite the terminal state.
	second, err := env.settle.Settle(ctx, ports.SettlementRequest{IntentID: intent.ID, Outcome: domain.SettlementFailed, Details: "late failure"})
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusSucceeded, second.Status)
	assert.Nil(t, second.FailureReason)
}

func TestSettle_UnknownIntent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.settle.Settle(context.Background(), ports.SettlementRequest{
		IntentID: "pi_000000000000000000000000",
		Outcome:  domain.SettlementSucceeded,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestSettle_InvalidOutcome(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.settle.Settle(context.Background(), ports.SettlementRequest{
		IntentID: "pi_whatever",
		Outcome:  domain.SettlementOutcome("maybe"),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestMerchantService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  ports.RegisterMerchantRequest
	}{
		{"empty name", ports.RegisterMerchantRequest{Name: "  ", Email: "a@b.c", SettlementAddress: testAddress}},
		{"bad email", ports.RegisterMerchantRequest{Name: "Shop", Email: "not-an-email", SettlementAddress: testAddress}},
		{"bad address", ports.RegisterMerchantRequest{Name: "Shop", Email: "a@b.c", SettlementAddress: "bc1tooshort"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.merchantSvc.Register(ctx, tt.req)
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
		})
	}
}

func TestMerchantService_GetNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.merchantSvc.Get(context.Background(), uuid.New())
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
