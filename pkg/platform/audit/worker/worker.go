// Package worker relays audit events from the transactional outbox to Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"conforma/pkg/platform/audit/store/postgres"

	"github.com/google/uuid"
)

// OutboxSource provides unpublished outbox entries for relay.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]postgres.OutboxEntry, error)
	MarkPublished(ctx context.Context, entryID uuid.UUID) error
}

// StreamPublisher publishes payloads to the audit event stream.
type StreamPublisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker polls the outbox and publishes pending entries to Kafka.
// Entries stay in the outbox until the broker acknowledges them, so a crash
// between fetch and mark yields redelivery, never loss.
type Worker struct {
	source    OutboxSource
	publisher StreamPublisher
	logger    *slog.Logger

	interval  time.Duration
	batchSize int
}

// Option configures the Worker.
type Option func(*Worker)

// WithInterval sets the poll interval.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		w.interval = d
	}
}

// WithBatchSize sets the number of entries relayed per poll.
func WithBatchSize(n int) Option {
	return func(w *Worker) {
		w.batchSize = n
	}
}

func NewWorker(source OutboxSource, publisher StreamPublisher, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		source:    source,
		publisher: publisher,
		logger:    logger,
		interval:  time.Second,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.relayBatch(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox relay failed", "error", err)
			}
		}
	}
}

func (w *Worker) relayBatch(ctx context.Context) error {
	entries, err := w.source.FetchUnpublished(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := w.publisher.Publish(ctx, entry.AggregateID, entry.Payload); err != nil {
			// Stop the batch so per-aggregate ordering survives the retry.
			return err
		}
		if err := w.source.MarkPublished(ctx, entry.ID); err != nil {
			return err
		}
	}

	if len(entries) > 0 {
		w.logger.DebugContext(ctx, "outbox entries relayed", "count", len(entries))
	}
	return nil
}
