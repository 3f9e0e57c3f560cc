package handler

import (
	"net/http"

	"intent-gateway/internal/adapter/http/dto"
	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"
	"intent-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// SettlementHandler handles the internal settlement trigger.
type SettlementHandler struct {
	settlementSvc ports.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementSvc ports.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Settle handles POST /internal/settlements.
func (h *SettlementHandler) Settle(c *gin.Context) {
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	intent, err := h.settlementSvc.Settle(c.Request.Context(), ports.SettlementRequest{
		IntentID: req.IntentID,
		Outcome:  domain.SettlementOutcome(req.Outcome),
		Details:  req.Details,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toIntentResponse(intent, false))
}

// HealthCheck handles GET /health. It pings every registered dependency.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}
