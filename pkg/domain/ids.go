// Package domain holds typed identifiers shared across service boundaries.
//
// IDs are distinct types over uuid.UUID so the compiler rejects accidental
// cross-assignment between, say, a run ID and a user ID. Parsing enforces the
// invariant that IDs are valid, non-nil UUIDs at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "conforma/pkg/domain-errors"
)

// UserID identifies an authenticated operator.
type UserID uuid.UUID

// RunID identifies a single compliance evaluation run.
type RunID uuid.UUID

// NewRunID allocates a fresh run identifier.
func NewRunID() RunID {
	return RunID(uuid.New())
}

// ParseUserID parses and validates a user ID string.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseRunID parses and validates a run ID string.
func ParseRunID(s string) (RunID, error) {
	u, err := parseUUID(s, "run_id")
	return RunID(u), err
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id RunID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RunID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// IDs serialize as their canonical UUID string.

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id RunID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(data []byte) error {
	u, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

func (id *RunID) UnmarshalText(data []byte) error {
	u, err := uuid.Parse(string(data))
	if err != nil {
		return err
	}
	*id = RunID(u)
	return nil
}

// parseUUID rejects empty, malformed, and nil UUIDs with a coded error.
func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", field)
	}
	return u, nil
}
