package audit

import (
	"context"
	"time"

	id "conforma/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: run
	// verdicts and everything that influenced them. These require
	// tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. These can be sampled with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	// Subject is the part number the event refers to, when applicable.
	Subject string
	Action  string
	// RunID correlates the event with a persisted validation run.
	RunID string
	// Verdict is the run outcome for evaluation events.
	Verdict string
	Reason  string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

type AuditEvent string

const (
	// Evaluation events
	EventEvaluationCompleted AuditEvent = "evaluation_completed"
	EventEvaluationRejected  AuditEvent = "evaluation_rejected"

	// Access events
	EventRunViewed  AuditEvent = "run_viewed"
	EventRunsListed AuditEvent = "runs_listed"

	// Auth events
	EventAuthFailed AuditEvent = "auth_failed"

	// Lifecycle events
	EventServiceStarted AuditEvent = "service_started"
	EventServiceStopped AuditEvent = "service_stopped"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventEvaluationCompleted: CategoryCompliance,
	EventEvaluationRejected:  CategoryCompliance,

	EventAuthFailed: CategorySecurity,

	EventRunViewed:      CategoryOperations,
	EventRunsListed:     CategoryOperations,
	EventServiceStarted: CategoryOperations,
	EventServiceStopped: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// EvaluationEvent captures a finished validation run. Emission is fail-closed:
// a run whose audit trail cannot be persisted must not be reported to the
// caller as complete.
type EvaluationEvent struct {
	Timestamp  time.Time
	UserID     id.UserID
	PartNumber string
	RunID      string
	Verdict    string
	Reason     string
	RequestID  string
}

// ToEvent converts to the generic Event type stores operate on.
func (e EvaluationEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.PartNumber,
		Action:    string(EventEvaluationCompleted),
		RunID:     e.RunID,
		Verdict:   e.Verdict,
		Reason:    e.Reason,
		RequestID: e.RequestID,
	}
}

// AccessEvent captures read access to stored runs. Emission is best-effort.
type AccessEvent struct {
	Timestamp  time.Time
	UserID     id.UserID
	PartNumber string
	RunID      string
	Action     AuditEvent
	RequestID  string
}

// ToEvent converts to the generic Event type stores operate on.
func (e AccessEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.PartNumber,
		Action:    string(e.Action),
		RunID:     e.RunID,
		RequestID: e.RequestID,
	}
}

// Store is the persistence contract for audit events. Outbox-backed
// implementations guarantee eventual delivery to the event stream.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
