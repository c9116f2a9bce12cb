// Package postgres persists validation runs in PostgreSQL. The diagnostic
// result is stored as a JSONB document; the verdict and classification are
// split into columns for querying.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"conforma/internal/compliance"
	id "conforma/pkg/domain"
	dErrors "conforma/pkg/domain-errors"
	"conforma/pkg/platform/sentinel"
	txcontext "conforma/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins the transaction carried by the context, if any, so a run and
// its audit outbox entry commit atomically.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) SaveRun(ctx context.Context, run *compliance.Run) error {
	result, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	var requestedBy *uuid.UUID
	if !run.RequestedBy.IsNil() {
		uid := uuid.UUID(run.RequestedBy)
		requestedBy = &uid
	}

	query := `
		INSERT INTO runs (id, part_number, family, variant, kind, requested_by, created_at, conformant, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(run.ID),
		run.PartNumber,
		string(run.Family),
		string(run.Variant),
		string(run.Kind),
		requestedBy,
		run.CreatedAt,
		run.Conformant,
		result,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, runID id.RunID) (*compliance.Run, error) {
	query := `
		SELECT id, part_number, family, variant, kind, requested_by, created_at, conformant, result
		FROM runs
		WHERE id = $1
	`
	run, err := s.scanRun(s.db.QueryRowContext(ctx, query, uuid.UUID(runID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "run not found")
		}
		return nil, err
	}
	return run, nil
}

func (s *Store) ListRunsByPart(ctx context.Context, partNumber string, limit int) ([]*compliance.Run, error) {
	query := `
		SELECT id, part_number, family, variant, kind, requested_by, created_at, conformant, result
		FROM runs
		WHERE part_number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, partNumber, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*compliance.Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRun(row rowScanner) (*compliance.Run, error) {
	var (
		run         compliance.Run
		runID       uuid.UUID
		family      string
		variant     string
		kind        string
		requestedBy *uuid.UUID
		result      []byte
	)

	err := row.Scan(&runID, &run.PartNumber, &family, &variant, &kind, &requestedBy, &run.CreatedAt, &run.Conformant, &result)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.ID = id.RunID(runID)
	run.Family = compliance.Family(family)
	run.Variant = compliance.Variant(variant)
	run.Kind = compliance.ElementKind(kind)
	if requestedBy != nil {
		run.RequestedBy = id.UserID(*requestedBy)
	}
	if err := json.Unmarshal(result, &run.Result); err != nil {
		return nil, fmt.Errorf("unmarshal run result: %w", err)
	}
	return &run, nil
}
