package compliance

import (
	"context"
	"log/slog"
	"time"

	"conforma/internal/compliance/metrics"
	"conforma/internal/compliance/ports"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/audit"
	"conforma/pkg/requestcontext"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const evaluateTimeout = 10 * time.Second

// defaultListLimit caps run history queries when the caller does not specify
// a limit.
const defaultListLimit = 20

// EvaluateInput carries everything a single validation run operates on: the
// part under review and the evidence extracted from the engineering systems.
type EvaluateInput struct {
	Product ProductContext

	// Elements is the flattened bill of material, root excluded.
	Elements []StructuralElement
	// Root is the part's own BOM row, required for schedule cross-checks.
	Root *StructuralElement

	Documents []DocumentRecord
	// AftermarketDocuments, when set, triggers the reduced aftermarket
	// document check instead of the full reconciliation for those titles.
	AftermarketDocuments []DocumentRecord

	Parameters map[string]string
	Schedule   map[string]string

	// ConfigArchive is a zip of .ini configuration exports extracted from
	// the device. ConfigINI is a single raw export; at most one of the two
	// should be set.
	ConfigArchive []byte
	ConfigINI     []byte
	// ConfigReferenceINI is the released reference file the extracted
	// configuration is compared against, after the identifier parameters
	// are pinned to the bill of material. Required whenever an extracted
	// configuration is supplied.
	ConfigReferenceINI []byte
}

// TxRunner executes fn within a storage transaction carried by the context,
// so transaction-aware stores join the same commit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service runs the reconciliation engines over a part record, persists the
// outcome, and emits the audit trail.
type Service struct {
	catalog  *Catalog
	store    Store
	cache    ResultCache
	audit    ports.AuditPort
	txRunner TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithCache sets the read-through result cache.
func WithCache(cache ResultCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithAudit sets the audit emitter. Evaluation events are fail-closed: runs
// do not complete if their audit event cannot be persisted.
func WithAudit(port ports.AuditPort) ServiceOption {
	return func(s *Service) {
		s.audit = port
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner makes Evaluate persist the run and its audit event in a
// single transaction. Without it, the two writes are sequential and the
// audit write failing still fails the run.
func WithTxRunner(runner TxRunner) ServiceOption {
	return func(s *Service) {
		s.txRunner = runner
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// NewService creates the compliance service.
func NewService(catalog *Catalog, store Store, opts ...ServiceOption) *Service {
	s := &Service{
		catalog: catalog,
		store:   store,
		tracer:  noop.NewTracerProvider().Tracer("compliance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate classifies the part, runs every applicable engine, persists the
// run, and emits the compliance audit event. The returned Run carries the
// verdict and the full diagnostic output.
func (s *Service) Evaluate(ctx context.Context, input EvaluateInput) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, evaluateTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "compliance.Evaluate")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.ObserveEvaluateLatency(time.Since(start))
	}()

	cls, err := Classify(input.Product)
	if err != nil {
		s.emitRejected(ctx, input.Product.PartNumber, err)
		return nil, err
	}

	profile, ok := s.catalog.Lookup(cls)

	var result DiagnosticResult
	if !ok {
		result.NoRuleDefined = true
	} else {
		result, err = s.runEngines(ctx, cls, profile, input)
		if err != nil {
			s.emitRejected(ctx, input.Product.PartNumber, err)
			return nil, err
		}
	}

	run := &Run{
		ID:          id.NewRunID(),
		PartNumber:  input.Product.PartNumber,
		Family:      cls.Family,
		Variant:     cls.Variant,
		Kind:        cls.Kind,
		RequestedBy: requestcontext.UserID(ctx),
		CreatedAt:   requestcontext.Now(ctx),
		Conformant:  result.Conformant(),
		Result:      result,
	}

	persist := func(ctx context.Context) error {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "persist validation run")
		}
		// Fail closed: a run whose audit trail cannot be persisted is not
		// reported as complete.
		if s.audit != nil {
			event := audit.EvaluationEvent{
				Timestamp:  run.CreatedAt,
				UserID:     run.RequestedBy,
				PartNumber: run.PartNumber,
				RunID:      run.ID.String(),
				Verdict:    verdictLabel(run),
				RequestID:  requestcontext.RequestID(ctx),
			}
			if err := s.audit.Emit(ctx, event.ToEvent()); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "record evaluation audit event")
			}
		}
		return nil
	}

	if s.txRunner != nil {
		err = s.txRunner.RunInTx(ctx, persist)
	} else {
		err = persist(ctx)
	}
	if err != nil {
		return nil, err
	}

	// The cache is written after the run is durable so a rollback never
	// leaves a phantom entry behind.
	if s.cache != nil {
		if err := s.cache.Set(ctx, run); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "result cache write failed",
				"run_id", run.ID,
				"error", err,
			)
		}
	}

	s.observeRun(run)

	if s.logger != nil {
		s.logger.InfoContext(ctx, "validation run completed",
			"run_id", run.ID,
			"part_number", run.PartNumber,
			"family", run.Family,
			"variant", run.Variant,
			"verdict", verdictLabel(run),
			"hard_findings", result.HardFindingCount(),
		)
	}

	return run, nil
}

// GetRun fetches a stored run, consulting the cache first.
func (s *Service) GetRun(ctx context.Context, runID id.RunID) (*Run, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.GetRun")
	defer span.End()

	if s.cache != nil {
		run, hit, err := s.cache.Get(ctx, runID)
		if err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "result cache read failed",
				"run_id", runID,
				"error", err,
			)
		}
		if hit {
			s.emitAccess(ctx, audit.EventRunViewed, run)
			return run, nil
		}
	}

	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, run); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "result cache write failed",
				"run_id", runID,
				"error", err,
			)
		}
	}

	s.emitAccess(ctx, audit.EventRunViewed, run)
	return run, nil
}

// ListRuns returns the most recent runs for a part number, newest first.
func (s *Service) ListRuns(ctx context.Context, partNumber string, limit int) ([]*Run, error) {
	ctx, span := s.tracer.Start(ctx, "compliance.ListRuns")
	defer span.End()

	if partNumber == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "part_number is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	runs, err := s.store.ListRunsByPart(ctx, partNumber, limit)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		event := audit.AccessEvent{
			Timestamp:  requestcontext.Now(ctx),
			UserID:     requestcontext.UserID(ctx),
			PartNumber: partNumber,
			Action:     audit.EventRunsListed,
			RequestID:  requestcontext.RequestID(ctx),
		}
		if err := s.audit.Emit(ctx, event.ToEvent()); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "access audit event lost", "error", err)
		}
	}

	return runs, nil
}

func (s *Service) emitAccess(ctx context.Context, action audit.AuditEvent, run *Run) {
	if s.audit == nil {
		return
	}
	event := audit.AccessEvent{
		Timestamp:  requestcontext.Now(ctx),
		UserID:     requestcontext.UserID(ctx),
		PartNumber: run.PartNumber,
		RunID:      run.ID.String(),
		Action:     action,
		RequestID:  requestcontext.RequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event.ToEvent()); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "access audit event lost",
			"run_id", run.ID,
			"error", err,
		)
	}
}

// emitRejected records evaluations that never produced a run. Best-effort:
// the original error is what the caller needs to see.
func (s *Service) emitRejected(ctx context.Context, partNumber string, cause error) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Category:  audit.CategoryCompliance,
		Timestamp: requestcontext.Now(ctx),
		UserID:    requestcontext.UserID(ctx),
		Subject:   partNumber,
		Action:    string(audit.EventEvaluationRejected),
		Reason:    cause.Error(),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "rejection audit event lost",
			"part_number", partNumber,
			"error", err,
		)
	}
}

func (s *Service) observeRun(run *Run) {
	s.metrics.IncrementRun(verdictLabel(run), string(run.Family))
	for _, f := range run.Result.Findings {
		s.metrics.IncrementFinding(string(f.Kind), string(f.Section))
	}
}

func verdictLabel(run *Run) string {
	switch {
	case run.Result.NoRuleDefined:
		return "no_rule_defined"
	case run.Conformant:
		return "conformant"
	default:
		return "non_conformant"
	}
}
