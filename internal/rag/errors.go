package rag

import (
	"errors"
	"fmt"
)

// Sentinel errors for the retrieval service layer.
var (
	// ErrNotFound means the requested record id does not exist.
	ErrNotFound = errors.New("rag record not found")

	// ErrStoreUnavailable means the record store could not be queried.
	// The classifier treats this the same as an empty history (fail open).
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// ValidationError reports malformed classification or record input.
// Handlers turn it into a 400 without retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
