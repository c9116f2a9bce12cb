package compliance

import (
	"time"

	id "conforma/pkg/domain"
)

// Run is one persisted validation run: the resolved classification, the full
// diagnostic output, and the verdict.
type Run struct {
	ID          id.RunID         `json:"id"`
	PartNumber  string           `json:"part_number"`
	Family      Family           `json:"family"`
	Variant     Variant          `json:"variant"`
	Kind        ElementKind      `json:"kind"`
	RequestedBy id.UserID        `json:"requested_by"`
	CreatedAt   time.Time        `json:"created_at"`
	Conformant  bool             `json:"conformant"`
	Result      DiagnosticResult `json:"result"`
}
