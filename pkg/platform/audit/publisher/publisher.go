// Package publisher emits audit events with category-dependent delivery
// guarantees.
//
// Compliance events are written synchronously and fail closed: the caller
// blocks until the store accepts the event, and a persistence failure must
// fail the originating operation. Operations and security events are
// best-effort and may be buffered.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	audit "conforma/pkg/platform/audit"
)

// Publisher routes audit events to the store by category.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics

	buffer *ringBuffer
	wg     sync.WaitGroup
	stop   chan struct{}
	once   sync.Once
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAsyncBuffer enables buffered delivery for non-compliance events.
// Compliance events stay synchronous regardless of this option.
func WithAsyncBuffer(capacity int) Option {
	return func(p *Publisher) {
		p.buffer = newRingBuffer(capacity)
	}
}

// NewPublisher creates a publisher backed by the given store.
// The store must be outbox-backed for guaranteed delivery.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drainLoop()
	}
	return p
}

// Emit persists an audit event. Compliance events are written synchronously
// and the caller MUST fail its operation when an error is returned. Other
// categories are enqueued when buffering is enabled, with the oldest events
// dropped under pressure.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Category == audit.CategoryCompliance || p.buffer == nil {
		return p.persist(ctx, event)
	}

	dropped := p.buffer.enqueue(event)
	if dropped && p.metrics != nil {
		p.metrics.IncDropped()
	}
	return nil
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil && event.Category == audit.CategoryCompliance {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"subject", event.Subject,
				"run_id", event.RunID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(string(event.Category))
	}
	return nil
}

// List returns stored events for a subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}

func (p *Publisher) drainLoop() {
	defer p.wg.Done()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			p.flush()
			return
		case <-ticker.C:
			p.flush()
		}
	}
}

func (p *Publisher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, event := range p.buffer.dequeueBatch(100) {
		if err := p.persist(ctx, event); err != nil && p.logger != nil {
			p.logger.Warn("buffered audit event lost",
				"action", event.Action,
				"error", err,
			)
		}
	}
}

// Close flushes buffered events and stops background delivery.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		close(p.stop)
	})
	p.wg.Wait()
	return nil
}
