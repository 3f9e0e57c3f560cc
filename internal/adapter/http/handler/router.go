package handler

import (
	"intent-gateway/internal/adapter/http/middleware"
	"intent-gateway/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	MerchantSvc    ports.MerchantService
	LedgerSvc      ports.LedgerService
	ConfirmSvc     ports.ConfirmationService
	SettlementSvc  ports.SettlementService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies storage engine + optional redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API v1 routes
	v1 := r.Group("/api/v1")

	merchantHandler := NewMerchantHandler(deps.MerchantSvc, deps.LedgerSvc)
	merchants := v1.Group("/merchants")
	{
		merchants.POST("", merchantHandler.Register)
		merchants.GET("/:id", merchantHandler.Get)
		merchants.GET("/:id/payment-intents", merchantHandler.ListIntents)
	}

	intentHandler := NewIntentHandler(deps.LedgerSvc, deps.ConfirmSvc)
	intents := v1.Group("/payment-intents")
	{
		intents.POST("", intentHandler.Create)
		intents.GET("/:id", intentHandler.Get)
		intents.POST("/:id/confirm", intentHandler.Confirm)
		intents.POST("/:id/cancel", intentHandler.Cancel)
	}

	// Settlement trigger is an operator surface, kept off the public API group.
	settlementHandler := NewSettlementHandler(deps.SettlementSvc)
	r.POST("/internal/settlements", settlementHandler.Settle)

	return r
}
