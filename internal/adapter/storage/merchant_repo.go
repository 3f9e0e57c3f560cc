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

const merchantColumns = `id, name, email, settlement_address, total_processed, fee_collected,
	payments_count, successful_payments, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct{}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo() *MerchantRepo {
	return &MerchantRepo{}
}

// Create inserts a new merchant with zeroed aggregate counters.
func (r *MerchantRepo) Create(ctx context.Context, q ports.Querier, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, name, email, settlement_address, total_processed, fee_collected,
		payments_count, successful_payments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := q.Exec(ctx, query,
		m.ID, m.Name, m.Email, m.SettlementAddress,
		m.TotalProcessed, m.FeeCollected, m.PaymentsCount, m.SuccessfulPayments,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID, returning (nil, nil) when absent.
func (r *MerchantRepo) GetByID(ctx context.Context, q ports.Querier, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	m := &domain.Merchant{}
	err := q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Name, &m.Email, &m.SettlementAddress,
		&m.TotalProcessed, &m.FeeCollected, &m.PaymentsCount, &m.SuccessfulPayments,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, ports.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get merchant by id: %w", err)
	}
	return m, nil
}

// ApplySettlement folds one settled intent into the merchant's aggregate
// counters in a single statement, so the increments are atomic with the
// surrounding transaction.
func (r *MerchantRepo) ApplySettlement(ctx context.Context, q ports.Querier, id uuid.UUID, amountSats, feeSats int64, succeeded bool, now time.Time) error {
	successInc := int64(0)
	if succeeded {
		successInc = 1
	} else {
		amountSats = 0
		feeSats = 0
	}

	query := `UPDATE merchants
		SET total_processed = total_processed + $2,
		    fee_collected = fee_collected + $3,
		    payments_count = payments_count + 1,
		    successful_payments = successful_payments + $4,
		    updated_at = $5
		WHERE id = $1`

	affected, err := q.Exec(ctx, query, id, amountSats, feeSats, successInc, now)
	if err != nil {
		return fmt.Errorf("apply settlement to merchant: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}
