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

// ConfirmationServiceImpl implements ports.ConfirmationService.
//
// The pending -> processing transition is guarded by a single conditional
// update whose WHERE clause carries the precondition. A read-then-write
// sequence would let two concurrent callers both observe "pending" and both
// win; folding the precondition into the write means the storage engine's
// atomicity decides the winner, identically on both engines.
type ConfirmationServiceImpl struct {
	gw      ports.Gateway
	intents ports.IntentRepository
	audit   ports.AuditRepository
	log     zerolog.Logger
}

// NewConfirmationService creates a new ConfirmationServiceImpl.
func NewConfirmationService(
	gw ports.Gateway,
	intents ports.IntentRepository,
	audit ports.AuditRepository,
	log zerolog.Logger,
) *ConfirmationServiceImpl {
	return &ConfirmationServiceImpl{gw: gw, intents: intents, audit: audit, log: log}
}

// Confirm moves a pending, unexpired intent to processing, recording the
// customer's address and settlement reference.
func (s *ConfirmationServiceImpl) Confirm(ctx context.Context, id, customerAddress, settlementReference string) (*domain.PaymentIntent, error) {
	// Format validation happens before any storage access.
	if !domain.ValidCustomerAddress(customerAddress) {
		return nil, apperror.ErrInvalidAddress()
	}
	if !domain.ValidSettlementReference(settlementReference) {
		return nil, apperror.ErrInvalidReference()
	}

	var confirmed *domain.PaymentIntent
	var stateErr *apperror.AppError

	err := s.gw.WithinTx(ctx, func(ctx context.Context, q ports.Querier) error {
		now := time.Now().UTC()

		intent, err := s.intents.MarkProcessing(ctx, q, id, customerAddress, settlementReference, now)
		if err != nil {
			return err
		}
		if intent == nil {
			// Zero rows affected: re-read inside the same transaction to
			// classify the failure. State errors are captured rather than
			// returned so an opportunistic expiry write still commits.
			stateErr, err = s.classifyConfirmFailure(ctx, q, id, now)
			return err
		}

		if err := s.audit.Append(ctx, q, domain.NewAuditEvent(id, domain.AuditEventConfirmed, "", now)); err != nil {
			return err
		}
		confirmed = intent
		return nil
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("confirm intent: %w", err))
	}
	if stateErr != nil {
		return nil, stateErr
	}

	s.log.Info().
		Str("intent_id", confirmed.ID).
		Str("merchant_id", confirmed.MerchantID.String()).
		Msg("payment intent confirmed")

	return confirmed, nil
}

// classifyConfirmFailure explains a zero-row conditional update: the intent
// is absent, overdue, or already claimed. Overdue pending rows are flipped
// to expired on the way out, so the state machine converges without timers.
func (s *ConfirmationServiceImpl) classifyConfirmFailure(ctx context.Context, q ports.Querier, id string, now time.Time) (*apperror.AppError, error) {
	current, err := s.intents.GetByID(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return apperror.ErrNotFound("Payment intent"), nil
	}

	if current.IsExpired(now) {
		moved, err := s.intents.MarkExpired(ctx, q, id, now)
		if err != nil {
			return nil, err
		}
		if moved {
			if err := s.audit.Append(ctx, q, domain.NewAuditEvent(id, domain.AuditEventExpired, "", now)); err != nil {
				return nil, err
			}
		}
		return apperror.ErrIntentExpired(), nil
	}
	if current.Status == domain.IntentStatusExpired {
		return apperror.ErrIntentExpired(), nil
	}
	return apperror.ErrAlreadyProcessed(), nil
}

// Cancel moves a pending intent to cancelled. Cancellation of anything but a
// live pending intent is a conflict.
func (s *ConfirmationServiceImpl) Cancel(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	var cancelled *domain.PaymentIntent
	var stateErr *apperror.AppError

	err := s.gw.WithinTx(ctx, func(ctx context.Context, q ports.Querier) error {
		now := time.Now().UTC()

		intent, err := s.intents.MarkCancelled(ctx, q, id, now)
		if err != nil {
			return err
		}
		if intent == nil {
			stateErr, err = s.classifyConfirmFailure(ctx, q, id, now)
			return err
		}

		payload, err := json.Marshal(map[string]string{"previous_status": string(domain.IntentStatusPending)})
		if err != nil {
			return err
		}
		if err := s.audit.Append(ctx, q, domain.NewAuditEvent(id, domain.AuditEventCancelled, string(payload), now)); err != nil {
			return err
		}
		cancelled = intent
		return nil
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("cancel intent: %w", err))
	}
	if stateErr != nil {
		return nil, stateErr
	}

	s.log.Info().Str("intent_id", cancelled.ID).Msg("payment intent cancelled")
	return cancelled, nil
}
