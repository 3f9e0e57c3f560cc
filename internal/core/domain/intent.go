package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// IntentStatus represents the lifecycle state of a payment intent.
// A status only ever advances forward; terminal rows are never rewritten.
type IntentStatus string

const (
	IntentStatusPending       IntentStatus = "pending"
	IntentStatusProcessing    IntentStatus = "processing"
	IntentStatusSucceeded     IntentStatus = "succeeded"
	IntentStatusPaymentFailed IntentStatus = "payment_failed"
	IntentStatusExpired       IntentStatus = "expired"
	IntentStatusCancelled     IntentStatus = "cancelled"
)

// SettlementOutcome is the result reported by the external settlement signal.
type SettlementOutcome string

const (
	SettlementSucceeded SettlementOutcome = "succeeded"
	SettlementFailed    SettlementOutcome = "failed"
)

// Valid reports whether the outcome is one of the two accepted values.
func (o SettlementOutcome) Valid() bool {
	return o == SettlementSucceeded || o == SettlementFailed
}

// PaymentIntent represents a requested transfer of a fixed satoshi amount,
// tracked through its lifecycle until settlement or expiry.
type PaymentIntent struct {
	ID                  string       `json:"id"`
	MerchantID          uuid.UUID    `json:"merchant_id"`
	AmountSats          int64        `json:"amount_sats"`
	FeeSats             int64        `json:"fee_sats"` // Derived, kept separate from amount
	Description         string       `json:"description"`
	Status              IntentStatus `json:"status"`
	ClientSecret        string       `json:"client_secret,omitempty"`
	CustomerAddress     *string      `json:"customer_address,omitempty"`
	SettlementReference *string      `json:"settlement_reference,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	ExpiresAt           time.Time    `json:"expires_at"`
	ProcessingStartedAt *time.Time   `json:"processing_started_at,omitempty"`
	SucceededAt         *time.Time   `json:"succeeded_at,omitempty"`
	FailedAt            *time.Time   `json:"failed_at,omitempty"`
	FailureReason       *string      `json:"failure_reason,omitempty"`
}

// IsTerminal returns true if the intent is in a final state.
func (p *PaymentIntent) IsTerminal() bool {
	switch p.Status {
	case IntentStatusSucceeded, IntentStatusPaymentFailed, IntentStatusExpired, IntentStatusCancelled:
		return true
	}
	return false
}

// IsExpired returns true if the intent is still pending but its deadline passed.
func (p *PaymentIntent) IsExpired(now time.Time) bool {
	return p.Status == IntentStatusPending && !now.Before(p.ExpiresAt)
}

const (
	customerAddressPrefix = "bc1"
	customerAddressMinLen = 42
	customerAddressMaxLen = 62
	settlementRefLen      = 64
)

// MaxAmountSats caps intent amounts at the total spendable supply,
// 21 million BTC in sats.
const MaxAmountSats int64 = 21_000_000 * 100_000_000

// ValidCustomerAddress checks the fixed prefix/length rules for a
// bech32 destination address.
func ValidCustomerAddress(addr string) bool {
	if len(addr) < customerAddressMinLen || len(addr) > customerAddressMaxLen {
		return false
	}
	return addr[:len(customerAddressPrefix)] == customerAddressPrefix
}

// ValidSettlementReference checks that ref is a 64-char lowercase hex txid.
func ValidSettlementReference(ref string) bool {
	if len(ref) != settlementRefLen {
		return false
	}
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NewIntentID generates a unique payment-intent id, e.g. "pi_1f8a...".
func NewIntentID() string {
	return "pi_" + randomHex(12)
}

// NewClientSecret generates the opaque secret handed to the paying client.
func NewClientSecret(intentID string) string {
	return intentID + "_secret_" + randomHex(16)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return hex.EncodeToString(b)
}
