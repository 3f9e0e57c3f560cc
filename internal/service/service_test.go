package service

import (
	"context"
	"testing"
	"time"

	"intent-gateway/config"
	"intent-gateway/internal/adapter/storage"
	"intent-gateway/internal/adapter/storage/sqlite"
	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testAddress = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	testRef     = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
)

// testEnv wires the services against a real in-memory storage engine, so
// conditional updates and transactions behave exactly as in production.
type testEnv struct {
	gw        ports.Gateway
	merchants ports.MerchantRepository
	intents   ports.IntentRepository
	audit     ports.AuditRepository

	merchantSvc *MerchantServiceImpl
	ledger      *LedgerServiceImpl
	confirm     *ConfirmationServiceImpl
	settle      *SettlementServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gw, err := sqlite.Open(context.Background(), config.FallbackConfig{Path: ":memory:"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(gw.Close)

	cfg := config.PaymentsConfig{
		FeeRateBps:    100,
		MinAmountSats: 1000,
		DefaultExpiry: time.Hour,
	}

	merchants := storage.NewMerchantRepo()
	intents := storage.NewIntentRepo()
	audit := storage.NewAuditRepo()
	log := zerolog.Nop()

	return &testEnv{
		gw:          gw,
		merchants:   merchants,
		intents:     intents,
		audit:       audit,
		merchantSvc: NewMerchantService(gw, merchants),
		ledger:      NewLedgerService(gw, intents, merchants, audit, nil, cfg, log),
		confirm:     NewConfirmationService(gw, intents, audit, log),
		settle:      NewSettlementService(gw, intents, merchants, audit, log),
	}
}

func (e *testEnv) seedMerchant(t *testing.T) *domain.Merchant {
	t.Helper()
	m, err := e.merchantSvc.Register(context.Background(), ports.RegisterMerchantRequest{
		Name:              "Test Shop",
		Email:             "shop@example.com",
		SettlementAddress: testAddress,
	})
	require.NoError(t, err)
	return m
}

// seedExpiredIntent inserts a pending intent whose deadline already passed,
// bypassing the service layer (which refuses non-positive TTLs).
func (e *testEnv) seedExpiredIntent(t *testing.T, m *domain.Merchant) *domain.PaymentIntent {
	t.Helper()
	now := time.Now().UTC()
	id := domain.NewIntentID()
	intent := &domain.PaymentIntent{
		ID:           id,
		MerchantID:   m.ID,
		AmountSats:   50_000,
		FeeSats:      500,
		Status:       domain.IntentStatusPending,
		ClientSecret: domain.NewClientSecret(id),
		CreatedAt:    now.Add(-2 * time.Hour),
		ExpiresAt:    now.Add(-time.Hour),
	}
	require.NoError(t, e.intents.Insert(context.Background(), e.gw, intent))
	return intent
}
