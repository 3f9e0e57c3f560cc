package handler

import (
	"time"

	"intent-gateway/internal/adapter/http/dto"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"
	"intent-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntentHandler handles payment intent endpoints.
type IntentHandler struct {
	ledgerSvc  ports.LedgerService
	confirmSvc ports.ConfirmationService
}

// NewIntentHandler creates a new IntentHandler.
func NewIntentHandler(ledgerSvc ports.LedgerService, confirmSvc ports.ConfirmationService) *IntentHandler {
	return &IntentHandler{ledgerSvc: ledgerSvc, confirmSvc: confirmSvc}
}

// Create handles POST /api/v1/payment-intents.
func (h *IntentHandler) Create(c *gin.Context) {
	var req dto.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchantID, err := uuid.Parse(req.MerchantID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	intent, err := h.ledgerSvc.CreateIntent(c.Request.Context(), ports.CreateIntentRequest{
		MerchantID:  merchantID,
		AmountSats:  req.AmountSats,
		Description: req.Description,
		TTL:         time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toIntentResponse(intent, true))
}

// Get handles GET /api/v1/payment-intents/:id.
func (h *IntentHandler) Get(c *gin.Context) {
	intent, err := h.ledgerSvc.GetIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toIntentResponse(intent, false))
}

// Confirm handles POST /api/v1/payment-intents/:id/confirm.
func (h *IntentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	intent, err := h.confirmSvc.Confirm(c.Request.Context(), c.Param("id"), req.CustomerAddress, req.SettlementReference)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toIntentResponse(intent, false))
}

// Cancel handles POST /api/v1/payment-intents/:id/cancel.
func (h *IntentHandler) Cancel(c *gin.Context) {
	intent, err := h.confirmSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toIntentResponse(intent, false))
}
