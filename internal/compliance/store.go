package compliance

import (
	"context"

	id "conforma/pkg/domain"
)

// Store persists validation runs. Swap with concrete storage without touching
// the service.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID id.RunID) (*Run, error)
	// ListRunsByPart returns the most recent runs for a part number, newest
	// first, capped at limit.
	ListRunsByPart(ctx context.Context, partNumber string, limit int) ([]*Run, error)
}

// ResultCache is a read-through cache for finished runs. A nil cache is
// valid and disables caching.
type ResultCache interface {
	Get(ctx context.Context, runID id.RunID) (*Run, bool, error)
	Set(ctx context.Context, run *Run) error
}
