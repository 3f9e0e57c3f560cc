package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/google/uuid"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	gw        ports.Gateway
	merchants ports.MerchantRepository
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(gw ports.Gateway, merchants ports.MerchantRepository) *MerchantServiceImpl {
	return &MerchantServiceImpl{gw: gw, merchants: merchants}
}

// Register creates a merchant with zeroed aggregate counters.
func (s *MerchantServiceImpl) Register(ctx context.Context, req ports.RegisterMerchantRequest) (*domain.Merchant, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperror.Validation("merchant name is required")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, apperror.Validation("merchant email is invalid")
	}
	if !domain.ValidCustomerAddress(req.SettlementAddress) {
		return nil, apperror.ErrInvalidAddress()
	}

	now := time.Now().UTC()
	m := &domain.Merchant{
		ID:                uuid.New(),
		Name:              req.Name,
		Email:             req.Email,
		SettlementAddress: req.SettlementAddress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.merchants.Create(ctx, s.gw, m); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("register merchant: %w", err))
	}
	return m, nil
}

// Get fetches a merchant by id.
func (s *MerchantServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	m, err := s.merchants.GetByID(ctx, s.gw, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get merchant: %w", err))
	}
	if m == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	return m, nil
}
