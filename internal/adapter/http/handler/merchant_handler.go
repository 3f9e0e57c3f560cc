package handler

import (
	"strconv"

	"intent-gateway/internal/adapter/http/dto"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"
	"intent-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
	ledgerSvc   ports.LedgerService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService, ledgerSvc ports.LedgerService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc, ledgerSvc: ledgerSvc}
}

// Register handles POST /api/v1/merchants.
func (h *MerchantHandler) Register(c *gin.Context) {
	var req dto.RegisterMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchant, err := h.merchantSvc.Register(c.Request.Context(), ports.RegisterMerchantRequest{
		Name:              req.Name,
		Email:             req.Email,
		SettlementAddress: req.SettlementAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toMerchantResponse(merchant))
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toMerchantResponse(merchant))
}

// ListIntents handles GET /api/v1/merchants/:id/payment-intents.
func (h *MerchantHandler) ListIntents(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	limit, err := parseQueryInt(c, "limit", 20)
	if err != nil {
		response.Error(c, apperror.Validation("invalid limit"))
		return
	}
	offset, err := parseQueryInt(c, "offset", 0)
	if err != nil {
		response.Error(c, apperror.Validation("invalid offset"))
		return
	}

	intents, total, err := h.ledgerSvc.ListByMerchant(c.Request.Context(), id, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.IntentResponse, 0, len(intents))
	for i := range intents {
		items = append(items, toIntentResponse(&intents[i], false))
	}

	response.OK(c, dto.IntentListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func parseQueryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
