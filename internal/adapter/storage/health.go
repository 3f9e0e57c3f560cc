package storage

import (
	"context"

	"intent-gateway/internal/core/ports"
)

// HealthCheck adapts the active gateway to the health endpoint, reporting
// under whichever engine name is live.
type HealthCheck struct {
	gw ports.Gateway
}

// NewHealthCheck creates a health checker for the given gateway.
func NewHealthCheck(gw ports.Gateway) *HealthCheck {
	return &HealthCheck{gw: gw}
}

// Ping verifies the engine answers a trivial query.
func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.gw.Health(ctx)
	return err
}

// Name returns the active engine name.
func (h *HealthCheck) Name() string {
	return h.gw.Engine()
}
