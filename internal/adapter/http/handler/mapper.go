package handler

import (
	"time"

	"intent-gateway/internal/adapter/http/dto"
	"intent-gateway/internal/core/domain"
)

func toIntentResponse(p *domain.PaymentIntent, includeSecret bool) dto.IntentResponse {
	resp := dto.IntentResponse{
		ID:                  p.ID,
		MerchantID:          p.MerchantID.String(),
		AmountSats:          p.AmountSats,
		FeeSats:             p.FeeSats,
		Description:         p.Description,
		Status:              string(p.Status),
		CustomerAddress:     p.CustomerAddress,
		SettlementReference: p.SettlementReference,
		CreatedAt:           formatTime(p.CreatedAt),
		ExpiresAt:           formatTime(p.ExpiresAt),
		ProcessingStartedAt: formatTimePtr(p.ProcessingStartedAt),
		SucceededAt:         formatTimePtr(p.SucceededAt),
		FailedAt:            formatTimePtr(p.FailedAt),
		FailureReason:       p.FailureReason,
	}
	// The client secret is only handed out once, on creation.
	if includeSecret {
		resp.ClientSecret = p.ClientSecret
	}
	return resp
}

func toMerchantResponse(m *domain.Merchant) dto.MerchantResponse {
	return dto.MerchantResponse{
		ID:                 m.ID.String(),
		Name:               m.Name,
		Email:              m.Email,
		SettlementAddress:  m.SettlementAddress,
		TotalProcessed:     m.TotalProcessed,
		FeeCollected:       m.FeeCollected,
		PaymentsCount:      m.PaymentsCount,
		SuccessfulPayments: m.SuccessfulPayments,
		CreatedAt:          formatTime(m.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
