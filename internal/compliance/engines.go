package compliance

import (
	"context"
	"time"

	"conforma/internal/compliance/source"
	dErrors "conforma/pkg/domain-errors"

	"golang.org/x/sync/errgroup"
)

// engineOutput collects per-engine results before they are merged in a fixed
// order. Each field is written by exactly one goroutine.
type engineOutput struct {
	structure  StructuralOutcome
	documents  []Finding
	parameters []ParameterRow
	paramFinds []Finding
	schedule   []ScheduleRow
	schedFinds []Finding
	config     []ParameterRow
	configFind []Finding
}

// runEngines executes every applicable reconciliation engine in parallel and
// merges the outputs. Merge order is fixed so two runs over the same input
// produce identical diagnostics.
func (s *Service) runEngines(ctx context.Context, cls Classification, profile RequirementProfile, input EvaluateInput) (DiagnosticResult, error) {
	g, ctx := errgroup.WithContext(ctx)

	var out engineOutput

	g.Go(func() error {
		start := time.Now()
		out.structure = ReconcileStructure(cls, profile, input.Elements, s.catalog.References())
		s.metrics.ObserveEngineLatency("structure", time.Since(start))
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		if len(input.AftermarketDocuments) > 0 {
			out.documents = ValidateAftermarketDocuments(cls, input.AftermarketDocuments)
		} else {
			out.documents = ReconcileDocuments(cls, profile, input.Documents)
		}
		s.metrics.ObserveEngineLatency("documents", time.Since(start))
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		out.parameters, out.paramFinds = CompareParameters(profile, input.Parameters)
		s.metrics.ObserveEngineLatency("parameters", time.Since(start))
		return nil
	})

	if len(input.Schedule) > 0 && input.Root != nil {
		g.Go(func() error {
			start := time.Now()
			out.schedule, out.schedFinds = CrossCheckSchedule(input.Schedule, *input.Root, input.Elements)
			s.metrics.ObserveEngineLatency("schedule", time.Since(start))
			return nil
		})
	}

	if len(input.ConfigArchive) > 0 || len(input.ConfigINI) > 0 {
		g.Go(func() error {
			start := time.Now()
			rows, findings, err := s.compareConfiguration(cls, input)
			s.metrics.ObserveEngineLatency("ini", time.Since(start))
			if err != nil {
				return err
			}
			out.config = rows
			out.configFind = findings
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return DiagnosticResult{}, err
	}

	result := DiagnosticResult{
		StructuralRows: out.structure.Rows,
		ParameterRows:  append(out.parameters, out.config...),
		ScheduleRows:   out.schedule,
	}
	result.Findings = append(result.Findings, out.structure.Findings...)
	result.Findings = append(result.Findings, out.documents...)
	result.Findings = append(result.Findings, out.paramFinds...)
	result.Findings = append(result.Findings, out.schedFinds...)
	result.Findings = append(result.Findings, out.configFind...)

	return result, nil
}

// compareConfiguration parses the extracted configuration export and diffs it
// against the reference file, whose identifier parameters are first pinned to
// the bill of material.
func (s *Service) compareConfiguration(cls Classification, input EvaluateInput) ([]ParameterRow, []Finding, error) {
	var (
		extracted []source.Parameter
		err       error
	)
	if len(input.ConfigArchive) > 0 {
		extracted, err = source.ParametersFromZip(input.ConfigArchive)
	} else {
		extracted, err = source.ParametersFromINI(input.ConfigINI)
	}
	if err != nil {
		return nil, nil, err
	}

	if len(input.ConfigReferenceINI) == 0 {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "configuration comparison requires a reference file")
	}
	refParams, err := source.ParametersFromINI(input.ConfigReferenceINI)
	if err != nil {
		return nil, nil, err
	}

	elements := make([]source.Element, len(input.Elements))
	for i, e := range input.Elements {
		elements[i] = source.Element{ID: e.ID, Title: e.Title, Description: e.Description}
	}

	observed := source.AsMap(extracted)
	reference := make([]NamedValue, 0, len(refParams))
	for _, p := range source.DeriveReference(refParams, elements, cls.PartNumber) {
		reference = append(reference, NamedValue{Name: p.Name, Value: p.Value})
	}
	rows, findings := CompareConfigurationValues(reference, observed)
	return rows, findings, nil
}
