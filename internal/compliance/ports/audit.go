package ports

import (
	"context"

	"conforma/pkg/platform/audit"
)

// AuditPort defines the interface for emitting audit events.
// It matches the publisher's Emit method but is defined here to keep the
// compliance module decoupled from delivery concerns.
type AuditPort interface {
	Emit(ctx context.Context, event audit.Event) error
}
