package ports

import (
	"context"
	"time"

	"intent-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// MerchantRepository defines persistence operations for merchants.
// Every method takes a Querier so callers decide whether it runs against the
// gateway directly or inside a transaction.
type MerchantRepository interface {
	Create(ctx context.Context, q Querier, m *domain.Merchant) error
	GetByID(ctx context.Context, q Querier, id uuid.UUID) (*domain.Merchant, error)
	// ApplySettlement atomically folds one settled intent into the merchant's
	// aggregate counters. succeeded selects which counters move.
	ApplySettlement(ctx context.Context, q Querier, id uuid.UUID, amountSats, feeSats int64, succeeded bool, now time.Time) error
}

// IntentRepository defines persistence operations for payment intents.
// The Mark* methods issue single conditional updates: the WHERE clause encodes
// the required prior state, making the write itself the concurrency guard.
// They return (nil, nil) when the precondition did not match any row.
type IntentRepository interface {
	Insert(ctx context.Context, q Querier, intent *domain.PaymentIntent) error
	GetByID(ctx context.Context, q Querier, id string) (*domain.PaymentIntent, error)
	ListByMerchant(ctx context.Context, q Querier, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentIntent, int64, error)

	// MarkProcessing: pending -> processing, only while unexpired.
	MarkProcessing(ctx context.Context, q Querier, id, customerAddress, settlementReference string, now time.Time) (*domain.PaymentIntent, error)
	// MarkExpired: pending -> expired. Returns whether a row moved.
	MarkExpired(ctx context.Context, q Querier, id string, now time.Time) (bool, error)
	// MarkCancelled: pending -> cancelled.
	MarkCancelled(ctx context.Context, q Querier, id string, now time.Time) (*domain.PaymentIntent, error)
	// MarkSettled: processing -> succeeded / payment_failed.
	MarkSettled(ctx context.Context, q Querier, id string, outcome domain.SettlementOutcome, failureReason string, now time.Time) (*domain.PaymentIntent, error)
}

// AuditRepository appends lifecycle events. Events are never updated or
// deleted; they are written in the same transaction as the transition.
type AuditRepository interface {
	Append(ctx context.Context, q Querier, event *domain.AuditEvent) error
	ListByIntent(ctx context.Context, q Querier, intentID string) ([]domain.AuditEvent, error)
}
