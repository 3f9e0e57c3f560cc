// Package storage selects one of the two interchangeable SQL engines at
// startup and exposes the repositories that run against either of them.
package storage

import (
	"context"
	"errors"

	"intent-gateway/config"
	"intent-gateway/internal/adapter/storage/postgres"
	"intent-gateway/internal/adapter/storage/sqlite"
	"intent-gateway/internal/core/ports"
	"intent-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// Open attempts the primary PostgreSQL engine within the configured connect
// timeout; on failure it falls back to the embedded SQLite engine and applies
// its bundled schema. Failure of both is fatal to startup.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.Gateway, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout)
	defer cancel()

	gw, primaryErr := postgres.Open(connectCtx, cfg.Database, log)
	if primaryErr == nil {
		return gw, nil
	}
	log.Warn().Err(primaryErr).Msg("primary storage engine unavailable, falling back to embedded engine")

	fallback, fallbackErr := sqlite.Open(ctx, cfg.Fallback, log)
	if fallbackErr != nil {
		log.Error().Err(fallbackErr).Msg("fallback storage engine failed to initialize")
		return nil, apperror.ErrStorageUnavailable(errors.Join(primaryErr, fallbackErr))
	}
	return fallback, nil
}
