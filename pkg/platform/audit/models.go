package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	ActorID   string    `json:"actor_id,omitempty"`
	// Subject is the record or credential the event is about.
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	ContentID string `json:"content_id,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Category groups events by retention and review policy.
type Category string

const (
	CategoryCompliance Category = "compliance"
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

type AuditEvent string

const (
	EventRecordAnchored   AuditEvent = "record_anchored"
	EventRecordRevoked    AuditEvent = "record_revoked"
	EventRecordExpired    AuditEvent = "record_expired"
	EventCredentialIssued AuditEvent = "credential_issued"
	EventProofRejected    AuditEvent = "proof_rejected"
	EventIntegrityFailure AuditEvent = "integrity_failure"
	EventAnchorFailed     AuditEvent = "anchor_failed"
)

// Category returns the category for the event. Unknown events are operational.
func (e AuditEvent) Category() Category {
	switch e {
	case EventRecordAnchored, EventRecordRevoked, EventCredentialIssued:
		return CategoryCompliance
	case EventProofRejected, EventIntegrityFailure:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}

// Store persists audit events. Implementations are append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
