package handler

import (
	"time"

	"conforma/internal/compliance"
)

// RunResponse is the HTTP representation of a validation run.
type RunResponse struct {
	ID            string                      `json:"id"`
	PartNumber    string                      `json:"part_number"`
	Family        string                      `json:"family"`
	Variant       string                      `json:"variant"`
	Kind          string                      `json:"kind"`
	CreatedAt     time.Time                   `json:"created_at"`
	Conformant    bool                        `json:"conformant"`
	NoRuleDefined bool                        `json:"no_rule_defined,omitempty"`
	HardFindings  int                         `json:"hard_findings"`
	Result        compliance.DiagnosticResult `json:"result"`
}

// RunListResponse is the HTTP response for GET /compliance/runs.
type RunListResponse struct {
	Runs []*RunResponse `json:"runs"`
}

// FromRun converts a domain run to an HTTP response.
func FromRun(run *compliance.Run) *RunResponse {
	return &RunResponse{
		ID:            run.ID.String(),
		PartNumber:    run.PartNumber,
		Family:        run.Family.String(),
		Variant:       run.Variant.String(),
		Kind:          run.Kind.String(),
		CreatedAt:     run.CreatedAt,
		Conformant:    run.Conformant,
		NoRuleDefined: run.Result.NoRuleDefined,
		HardFindings:  run.Result.HardFindingCount(),
		Result:        run.Result,
	}
}

// FromRuns converts a run list to an HTTP response.
func FromRuns(runs []*compliance.Run) *RunListResponse {
	out := make([]*RunResponse, len(runs))
	for i, run := range runs {
		out[i] = FromRun(run)
	}
	return &RunListResponse{Runs: out}
}
