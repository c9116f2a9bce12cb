// Package consumer materializes audit events from the Kafka stream into the
// queryable audit_events table.
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"conforma/internal/platform/kafka/consumer"
	id "conforma/pkg/domain"
	audit "conforma/pkg/platform/audit"

	"github.com/google/uuid"
)

// EventStore materializes stream events for querying.
type EventStore interface {
	AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error
}

// EventHandler consumes audit events and writes them to the store.
// Malformed messages are logged and committed so they cannot wedge the
// partition; storage failures are returned so the offset stays uncommitted.
type EventHandler struct {
	store  EventStore
	logger *slog.Logger
}

func NewEventHandler(store EventStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{store: store, logger: logger}
}

// streamPayload matches the JSON written by the outbox store.
type streamPayload struct {
	ID        string `json:"ID"`
	Category  string `json:"Category"`
	Timestamp string `json:"Timestamp"`
	UserID    string `json:"UserID"`
	Subject   string `json:"Subject"`
	Action    string `json:"Action"`
	RunID     string `json:"RunID"`
	Verdict   string `json:"Verdict"`
	Reason    string `json:"Reason"`
	RequestID string `json:"RequestID"`
}

// Handle materializes one stream record.
func (h *EventHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var payload streamPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.ErrorContext(ctx, "CRITICAL: failed to unmarshal audit payload",
			"topic", msg.Topic,
			"key", string(msg.Key),
			"error", err,
		)
		// Commit malformed messages to avoid redelivery loops.
		return nil
	}

	eventID, err := uuid.Parse(payload.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "CRITICAL: failed to parse audit event ID",
			"id", payload.ID,
			"error", err,
		)
		return nil
	}

	timestamp, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
	if err != nil {
		timestamp = msg.Timestamp
	}

	event := audit.Event{
		Category:  audit.EventCategory(payload.Category),
		Timestamp: timestamp,
		Subject:   payload.Subject,
		Action:    payload.Action,
		RunID:     payload.RunID,
		Verdict:   payload.Verdict,
		Reason:    payload.Reason,
		RequestID: payload.RequestID,
	}
	if payload.UserID != "" {
		if userID, err := uuid.Parse(payload.UserID); err == nil {
			event.UserID = id.UserID(userID)
		}
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		// Leave the offset uncommitted so the event is redelivered.
		return err
	}
	return nil
}
