package ports

import (
	"context"
	"time"

	"intent-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// IntentCache is an optional fast-path cache for intents in terminal states.
// Terminal rows are immutable, so cached copies can never go stale.
type IntentCache interface {
	Get(ctx context.Context, id string) (*domain.PaymentIntent, error) // nil, nil on miss
	Set(ctx context.Context, intent *domain.PaymentIntent, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// LedgerService creates and reads payment intents.
type LedgerService interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*domain.PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentIntent, int64, error)
}

// CreateIntentRequest holds validated input for intent creation.
type CreateIntentRequest struct {
	MerchantID  uuid.UUID
	AmountSats  int64
	Description string
	TTL         time.Duration // zero = configured default
}

// ConfirmationService drives the pending -> processing transition and the
// explicit pending -> cancelled edge.
type ConfirmationService interface {
	Confirm(ctx context.Context, id, customerAddress, settlementReference string) (*domain.PaymentIntent, error)
	Cancel(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

// SettlementService applies the external settlement signal, moving a
// processing intent to its terminal state. Idempotent by construction.
type SettlementService interface {
	Settle(ctx context.Context, req SettlementRequest) (*domain.PaymentIntent, error)
}

// SettlementRequest is the opaque external settlement signal.
type SettlementRequest struct {
	IntentID string
	Outcome  domain.SettlementOutcome
	Details  string // failure reason when Outcome is failed
}

// MerchantService registers and reads merchants.
type MerchantService interface {
	Register(ctx context.Context, req RegisterMerchantRequest) (*domain.Merchant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
}

// RegisterMerchantRequest holds input for merchant registration.
type RegisterMerchantRequest struct {
	Name              string
	Email             string
	SettlementAddress string
}
