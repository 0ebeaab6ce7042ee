package models

import "errors"

// Sentinel errors shared between the stores, services, and handlers.
var (
	// ErrNotFound is returned when a record does not exist among non-deleted rows.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint rejects a write, such
	// as two concurrent creates racing for the same slug. The operation is
	// retryable.
	ErrConflict = errors.New("conflict")
)
