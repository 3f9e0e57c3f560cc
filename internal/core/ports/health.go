package ports

import "context"

// HealthChecker is implemented by external dependencies (storage, cache)
// for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
