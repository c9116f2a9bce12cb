// Package sentinel defines errors for infrastructure facts. Stores return
// these, optionally wrapped, so services can translate them into domain
// errors without inspecting driver-specific failures.
package sentinel

import "errors"

var (
	// ErrNotFound marks an entity that does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks a backing resource that is temporarily down.
	ErrUnavailable = errors.New("unavailable")
)
