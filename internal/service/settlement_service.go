package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// SettlementServiceImpl implements ports.SettlementService. The external
// settlement signal is opaque here; in production it comes from a settlement
// watcher or webhook, in tests it is called directly.
//
// Settle is idempotent by construction: its conditional update only matches
// rows still in processing, so replaying a settlement finds zero rows and
// becomes a no-op with no duplicate audit event and no counter drift.
type SettlementServiceImpl struct {
	gw        ports.Gateway
	intents   ports.IntentRepository
	merchants ports.MerchantRepository
	audit     ports.AuditRepository
	log       zerolog.Logger
}

// NewSettlementService creates a new SettlementServiceImpl.
func NewSettlementService(
	gw ports.Gateway,
	intents ports.IntentRepository,
	merchants ports.MerchantRepository,
	audit ports.AuditRepository,
	log zerolog.Logger,
) *SettlementServiceImpl {
	return &SettlementServiceImpl{gw: gw, intents: intents, merchants: merchants, audit: audit, log: log}
}

// Settle moves a processing intent to succeeded or payment_failed and, on
// success, folds the amounts into the merchant's aggregate counters in the
// same transaction. Already-terminal intents are acknowledged unchanged.
func (s *SettlementServiceImpl) Settle(ctx context.Context, req ports.SettlementRequest) (*domain.PaymentIntent, error) {
	if !req.Outcome.Valid() {
		return nil, apperror.Validation(fmt.Sprintf("unknown settlement outcome %q", req.Outcome))
	}

	var settled *domain.PaymentIntent
	var stateErr *apperror.AppError
	var noop bool

	err := s.gw.WithinTx(ctx, func(ctx context.Context, q ports.Querier) error {
		now := time.Now().UTC()

		intent, err := s.intents.MarkSettled(ctx, q, req.IntentID, req.Outcome, req.Details, now)
		if err != nil {
			return err
		}
		if intent == nil {
			// Not in processing: either unknown or already settled. The
			// latter is acknowledged as a no-op so external retries are safe.
			current, err := s.intents.GetByID(ctx, q, req.IntentID)
			if err != nil {
				return err
			}
			if current == nil {
				stateErr = apperror.ErrNotFound("Payment intent")
				return nil
			}
			settled = current
			noop = true
			return nil
		}

		succeeded := req.Outcome == domain.SettlementSucceeded
		if err := s.merchants.ApplySettlement(ctx, q, intent.MerchantID, intent.AmountSats, intent.FeeSats, succeeded, now); err != nil {
			return err
		}

		eventType := domain.AuditEventSettled
		if !succeeded {
			eventType = domain.AuditEventSettlementFailed
		}
		payload, err := json.Marshal(map[string]any{
			"outcome":     req.Outcome,
			"amount_sats": intent.AmountSats,
			"fee_sats":    intent.FeeSats,
		})
		if err != nil {
			return err
		}
		if err := s.audit.Append(ctx, q, domain.NewAuditEvent(intent.ID, eventType, string(payload), now)); err != nil {
			return err
		}

		settled = intent
		return nil
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("settle intent: %w", err))
	}
	if stateErr != nil {
		return nil, stateErr
	}

	if noop {
		s.log.Info().
			Str("intent_id", settled.ID).
			Str("status", string(settled.Status)).
			Msg("settlement replay ignored, intent already terminal")
		return settled, nil
	}

	s.log.Info().
		Str("intent_id", settled.ID).
		Str("merchant_id", settled.MerchantID.String()).
		Str("outcome", string(req.Outcome)).
		Msg("payment intent settled")

	return settled, nil
}
