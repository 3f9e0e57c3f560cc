package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"

	"github.com/google/uuid"
)

const intentColumns = `id, merchant_id, amount_sats, fee_sats, description, status, client_secret,
	customer_address, settlement_reference, created_at, expires_at,
	processing_started_at, succeeded_at, failed_at, failure_reason`

const intentLookup = `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1`

// IntentRepo implements ports.IntentRepository. All SQL is written in
// PostgreSQL dialect; the active gateway adapts it for the fallback engine.
type IntentRepo struct{}

// NewIntentRepo creates a new IntentRepo.
func NewIntentRepo() *IntentRepo {
	return &IntentRepo{}
}

// Insert persists a freshly created intent.
func (r *IntentRepo) Insert(ctx context.Context, q ports.Querier, intent *domain.PaymentIntent) error {
	query := `INSERT INTO payment_intents (id, merchant_id, amount_sats, fee_sats, description, status,
		client_secret, customer_address, settlement_reference, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := q.Exec(ctx, query,
		intent.ID, intent.MerchantID, intent.AmountSats, intent.FeeSats,
		intent.Description, intent.Status, intent.ClientSecret,
		intent.CustomerAddress, intent.SettlementReference,
		intent.CreatedAt, intent.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

// GetByID fetches an intent by id, returning (nil, nil) when absent.
func (r *IntentRepo) GetByID(ctx context.Context, q ports.Querier, id string) (*domain.PaymentIntent, error) {
	return scanIntent(q.QueryRow(ctx, intentLookup, id))
}

// ListByMerchant fetches a page of a merchant's intents in insertion order,
// along with the total count.
func (r *IntentRepo) ListByMerchant(ctx context.Context, q ports.Querier, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentIntent, int64, error) {
	var total int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payment_intents WHERE merchant_id = $1`, merchantID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payment intents: %w", err)
	}

	query := `SELECT ` + intentColumns + ` FROM payment_intents
		WHERE merchant_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	rows, err := q.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment intents: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var intents []domain.PaymentIntent
	for rows.Next() {
		var it domain.PaymentIntent
		if err := rows.Scan(
			&it.ID, &it.MerchantID, &it.AmountSats, &it.FeeSats,
			&it.Description, &it.Status, &it.ClientSecret,
			&it.CustomerAddress, &it.SettlementReference,
			&it.CreatedAt, &it.ExpiresAt,
			&it.ProcessingStartedAt, &it.SucceededAt, &it.FailedAt, &it.FailureReason,
		); err != nil {
			return nil, 0, fmt.Errorf("scan payment intent row: %w", err)
		}
		intents = append(intents, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment intent rows: %w", err)
	}
	return intents, total, nil
}

// MarkProcessing issues the single conditional update that is the
// concurrency guard for confirmation: the precondition lives in the WHERE
// clause, so among concurrent callers exactly one update affects the row.
func (r *IntentRepo) MarkProcessing(ctx context.Context, q ports.Querier, id, customerAddress, settlementReference string, now time.Time) (*domain.PaymentIntent, error) {
	query := `UPDATE payment_intents
		SET status = 'processing', customer_address = $2, settlement_reference = $3, processing_started_at = $4
		WHERE id = $1 AND status = 'pending' AND expires_at > $4
		RETURNING ` + intentColumns

	return scanIntent(q.QueryRowReturning(ctx, ports.ReturningQuery{
		SQL:        query,
		Args:       []any{id, customerAddress, settlementReference, now},
		LookupSQL:  intentLookup,
		LookupArgs: []any{id},
	}))
}

// MarkExpired flips an overdue pending intent to expired.
func (r *IntentRepo) MarkExpired(ctx context.Context, q ports.Querier, id string, now time.Time) (bool, error) {
	affected, err := q.Exec(ctx,
		`UPDATE payment_intents SET status = 'expired'
		 WHERE id = $1 AND status = 'pending' AND expires_at <= $2`,
		id, now,
	)
	if err != nil {
		return false, fmt.Errorf("mark intent expired: %w", err)
	}
	return affected == 1, nil
}

// MarkCancelled moves a pending intent to cancelled.
func (r *IntentRepo) MarkCancelled(ctx context.Context, q ports.Querier, id string, now time.Time) (*domain.PaymentIntent, error) {
	query := `UPDATE payment_intents
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending' AND expires_at > $2
		RETURNING ` + intentColumns

	return scanIntent(q.QueryRowReturning(ctx, ports.ReturningQuery{
		SQL:        query,
		Args:       []any{id, now},
		LookupSQL:  intentLookup,
		LookupArgs: []any{id},
	}))
}

// MarkSettled moves a processing intent to its terminal state. A zero-row
// outcome means the intent already left processing, which callers treat as
// an idempotent no-op.
func (r *IntentRepo) MarkSettled(ctx context.Context, q ports.Querier, id string, outcome domain.SettlementOutcome, failureReason string, now time.Time) (*domain.PaymentIntent, error) {
	var rq ports.ReturningQuery
	if outcome == domain.SettlementSucceeded {
		rq = ports.ReturningQuery{
			SQL: `UPDATE payment_intents SET status = 'succeeded', succeeded_at = $2
				WHERE id = $1 AND status = 'processing'
				RETURNING ` + intentColumns,
			Args: []any{id, now},
		}
	} else {
		rq = ports.ReturningQuery{
			SQL: `UPDATE payment_intents SET status = 'payment_failed', failed_at = $2, failure_reason = $3
				WHERE id = $1 AND status = 'processing'
				RETURNING ` + intentColumns,
			Args: []any{id, now, failureReason},
		}
	}
	rq.LookupSQL = intentLookup
	rq.LookupArgs = []any{id}

	return scanIntent(q.QueryRowReturning(ctx, rq))
}

// scanIntent is a helper to scan a single row into a PaymentIntent.
func scanIntent(row ports.Row) (*domain.PaymentIntent, error) {
	it := &domain.PaymentIntent{}
	err := row.Scan(
		&it.ID, &it.MerchantID, &it.AmountSats, &it.FeeSats,
		&it.Description, &it.Status, &it.ClientSecret,
		&it.CustomerAddress, &it.SettlementReference,
		&it.CreatedAt, &it.ExpiresAt,
		&it.ProcessingStartedAt, &it.SucceededAt, &it.FailedAt, &it.FailureReason,
	)
	if err != nil {
		if errors.Is(err, ports.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payment intent: %w", err)
	}
	return it, nil
}
