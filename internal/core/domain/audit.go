package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEventType identifies a single lifecycle transition.
type AuditEventType string

const (
	AuditEventCreated          AuditEventType = "created"
	AuditEventConfirmed        AuditEventType = "confirmed"
	AuditEventCancelled        AuditEventType = "cancelled"
	AuditEventExpired          AuditEventType = "expired"
	AuditEventSettled          AuditEventType = "settled"
	AuditEventSettlementFailed AuditEventType = "settlement_failed"
)

// AuditEvent is an immutable record of one lifecycle transition, written in
// the same transaction as the transition itself. Never mutated or deleted.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	IntentID  string         `json:"intent_id"`
	EventType AuditEventType `json:"event_type"`
	Payload   string         `json:"payload"` // JSON string
	CreatedAt time.Time      `json:"created_at"`
}

// NewAuditEvent builds an event for one transition of the given intent.
func NewAuditEvent(intentID string, eventType AuditEventType, payload string, now time.Time) *AuditEvent {
	return &AuditEvent{
		ID:        uuid.New(),
		IntentID:  intentID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: now,
	}
}
