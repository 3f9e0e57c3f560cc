package storage

import (
	"context"
	"fmt"

	"intent-gateway/internal/core/domain"
	"intent-gateway/internal/core/ports"
)

// AuditRepo implements ports.AuditRepository. Rows are append-only.
type AuditRepo struct{}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

// Append writes one lifecycle event. Callers pass the transaction-scoped
// Querier of the transition being recorded.
func (r *AuditRepo) Append(ctx context.Context, q ports.Querier, event *domain.AuditEvent) error {
	_, err := q.Exec(ctx,
		`INSERT INTO audit_events (id, intent_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.IntentID, event.EventType, event.Payload, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByIntent returns an intent's events in creation order.
func (r *AuditRepo) ListByIntent(ctx context.Context, q ports.Querier, intentID string) ([]domain.AuditEvent, error) {
	rows, err := q.Query(ctx,
		`SELECT id, intent_id, event_type, payload, created_at
		 FROM audit_events WHERE intent_id = $1 ORDER BY created_at, id`,
		intentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var events []domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		if err := rows.Scan(&e.ID, &e.IntentID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit event rows: %w", err)
	}
	return events, nil
}
