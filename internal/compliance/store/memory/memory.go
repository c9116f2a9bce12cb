// Package memory is an in-process run store for tests and local development.
package memory

import (
	"context"
	"sync"

	"conforma/internal/compliance"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/sentinel"
)

// Store keeps runs in memory. Lists return newest first, matching the
// database-backed implementation.
type Store struct {
	mu     sync.RWMutex
	runs   map[id.RunID]*compliance.Run
	byPart map[string][]*compliance.Run
}

func New() *Store {
	return &Store{
		runs:   make(map[id.RunID]*compliance.Run),
		byPart: make(map[string][]*compliance.Run),
	}
}

func (s *Store) SaveRun(_ context.Context, run *compliance.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *run
	s.runs[run.ID] = &copied
	s.byPart[run.PartNumber] = append(s.byPart[run.PartNumber], &copied)
	return nil
}

func (s *Store) GetRun(_ context.Context, runID id.RunID) (*compliance.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "run not found")
	}
	copied := *run
	return &copied, nil
}

func (s *Store) ListRunsByPart(_ context.Context, partNumber string, limit int) ([]*compliance.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.byPart[partNumber]
	out := make([]*compliance.Run, 0, min(limit, len(stored)))
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *stored[i]
		out = append(out, &copied)
	}
	return out, nil
}
