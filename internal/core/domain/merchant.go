package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a registered merchant. Aggregate counters are mutated
// only by the settlement processor; a merchant is never deleted while
// payment intents reference it.
type Merchant struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	SettlementAddress  string    `json:"settlement_address"`
	TotalProcessed     int64     `json:"total_processed"` // Sats from succeeded intents
	FeeCollected       int64     `json:"fee_collected"`
	PaymentsCount      int64     `json:"payments_count"`
	SuccessfulPayments int64     `json:"successful_payments"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
