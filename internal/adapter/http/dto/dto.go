package dto

// RegisterMerchantRequest is the request body for merchant registration.
type RegisterMerchantRequest struct {
	Name              string `json:"name" binding:"required,min=1,max=100"`
	Email             string `json:"email" binding:"required,email"`
	SettlementAddress string `json:"settlement_address" binding:"required"`
}

// MerchantResponse is the response body for merchant reads.
type MerchantResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	SettlementAddress  string `json:"settlement_address"`
	TotalProcessed     int64  `json:"total_processed"`
	FeeCollected       int64  `json:"fee_collected"`
	PaymentsCount      int64  `json:"payments_count"`
	SuccessfulPayments int64  `json:"successful_payments"`
	CreatedAt          string `json:"created_at"`
}

// CreateIntentRequest is the request body for intent creation.
type CreateIntentRequest struct {
	MerchantID  string `json:"merchant_id" binding:"required,uuid"`
	AmountSats  int64  `json:"amount_sats" binding:"required,gt=0"`
	Description string `json:"description" binding:"max=500"`
	TTLSeconds  int64  `json:"ttl_seconds" binding:"omitempty,gt=0"`
}

// ConfirmIntentRequest is the request body for intent confirmation.
type ConfirmIntentRequest struct {
	CustomerAddress     string `json:"customer_address" binding:"required"`
	SettlementReference string `json:"settlement_reference" binding:"required"`
}

// SettlementRequest is the request body for the external settlement signal.
type SettlementRequest struct {
	IntentID string `json:"intent_id" binding:"required"`
	Outcome  string `json:"outcome" binding:"required,oneof=succeeded failed"`
	Details  string `json:"details" binding:"max=500"`
}

// IntentResponse is the response body for payment intent results.
type IntentResponse struct {
	ID                  string  `json:"id"`
	MerchantID          string  `json:"merchant_id"`
	AmountSats          int64   `json:"amount_sats"`
	FeeSats             int64   `json:"fee_sats"`
	Description         string  `json:"description,omitempty"`
	Status              string  `json:"status"`
	ClientSecret        string  `json:"client_secret,omitempty"`
	CustomerAddress     *string `json:"customer_address,omitempty"`
	SettlementReference *string `json:"settlement_reference,omitempty"`
	CreatedAt           string  `json:"created_at"`
	ExpiresAt           string  `json:"expires_at"`
	ProcessingStartedAt *string `json:"processing_started_at,omitempty"`
	SucceededAt         *string `json:"succeeded_at,omitempty"`
	FailedAt            *string `json:"failed_at,omitempty"`
	FailureReason       *string `json:"failure_reason,omitempty"`
}

// IntentListResponse wraps a paginated intent list.
type IntentListResponse struct {
	Items  []IntentResponse `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}
