package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intent-gateway/config"
	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const terminalCacheTTL = 24 * time.Hour

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	gw        ports.Gateway
	intents   ports.IntentRepository
	merchants ports.MerchantRepository
	audit     ports.AuditRepository
	cache     ports.IntentCache // optional, nil disables caching
	cfg       config.PaymentsConfig
	log       zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. cache may be nil.
func NewLedgerService(
	gw ports.Gateway,
	intents ports.IntentRepository,
	merchants ports.MerchantRepository,
	audit ports.AuditRepository,
	cache ports.IntentCache,
	cfg config.PaymentsConfig,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		gw:        gw,
		intents:   intents,
		merchants: merchants,
		audit:     audit,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

// CreateIntent validates the request, derives the fee and persists the new
// intent together with its "created" audit event in one transaction.
func (s *LedgerServiceImpl) CreateIntent(ctx context.Context, req ports.CreateIntentRequest) (*domain.PaymentIntent, error) {
	if req.AmountSats <= 0 || req.AmountSats < s.cfg.MinAmountSats {
		return nil, apperror.ErrInvalidAmount(s.cfg.MinAmountSats)
	}
	if req.AmountSats > domain.MaxAmountSats {
		return nil, apperror.Validation(
			fmt.Sprintf("Amount must not exceed %d sats", domain.MaxAmountSats))
	}

	merchant, err := s.merchants.GetByID(ctx, s.gw, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.cfg.DefaultExpiry
	}

	now := time.Now().UTC()
	id := domain.NewIntentID()
	intent := &domain.PaymentIntent{
		ID:           id,
		MerchantID:   req.MerchantID,
		AmountSats:   req.AmountSats,
		FeeSats:      ComputeFee(req.AmountSats, s.cfg.FeeRateBps),
		Description:  req.Description,
		Status:       domain.IntentStatusPending,
		ClientSecret: domain.NewClientSecret(id),
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}

	payload, err := json.Marshal(map[string]any{
		"amount_sats": intent.AmountSats,
		"fee_sats":    intent.FeeSats,
		"expires_at":  intent.ExpiresAt,
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal audit payload: %w", err))
	}

	err = s.gw.WithinTx(ctx, func(ctx context.Context, q ports.Querier) error {
		if err := s.intents.Insert(ctx, q, intent); err != nil {
			return err
		}
		return s.audit.Append(ctx, q, domain.NewAuditEvent(intent.ID, domain.AuditEventCreated, string(payload), now))
	})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create intent: %w", err))
	}

	s.log.Info().
		Str("intent_id", intent.ID).
		Str("merchant_id", req.MerchantID.String()).
		Int64("amount_sats", intent.AmountSats).
		Int64("fee_sats", intent.FeeSats).
		Msg("payment intent created")

	return intent, nil
}

// GetIntent returns an intent by id, consulting the terminal-intent cache
// first when one is configured.
func (s *LedgerServiceImpl) GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Msg("intent cache read failed, falling through to storage")
		} else if cached != nil {
			return cached, nil
		}
	}

	intent, err := s.intents.GetByID(ctx, s.gw, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get intent: %w", err))
	}
	if intent == nil {
		return nil, apperror.ErrNotFound("Payment intent")
	}

	// Only terminal rows are immutable, so only they are safe to cache.
	if s.cache != nil && intent.IsTerminal() {
		if err := s.cache.Set(ctx, intent, terminalCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache terminal intent")
		}
	}
	return intent, nil
}

// ListByMerchant returns a page of a merchant's intents plus the total count.
func (s *LedgerServiceImpl) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.PaymentIntent, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.intents.ListByMerchant(ctx, s.gw, merchantID, limit, offset)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list intents: %w", err))
	}
	return items, total, nil
}
