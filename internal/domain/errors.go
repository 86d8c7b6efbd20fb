package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// record does not exist in the active backend.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a payload is missing a required field or a
// field value violates the collection schema (e.g. unknown enum value).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnknownCollection is returned when a collection name is not one of the
// seven persisted collections.
var ErrUnknownCollection = errors.New("unknown collection")

// ErrBackendUnavailable marks a failed startup probe of the document store.
// It never reaches request handlers: the backend selector converts it into a
// fallback to the file store.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrCascade is matched by every *CascadeError via errors.Is.
var ErrCascade = errors.New("cascade delete failed")

// CascadeError reports a trip deletion that removed only part of the trip's
// records. Completed deletions are not rolled back.
type CascadeError struct {
	TripID    string
	Succeeded []string
	Failed    map[string]error
}

// Error lists the failed collections in a stable order.
func (e *CascadeError) Error() string {
	names := e.FailedCollections()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Failed[name].Error())
	}
	return "cascade delete of trip " + e.TripID + " failed (" + strings.Join(parts, "; ") + ")"
}

// FailedCollections returns the names of the collections whose deletion failed, sorted.
func (e *CascadeError) FailedCollections() []string {
	names := make([]string, 0, len(e.Failed))
	for name := range e.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Is reports ErrCascade as a match so callers need not type-assert.
func (e *CascadeError) Is(target error) bool {
	return target == ErrCascade
}

// Unwrap exposes the per-collection causes to errors.Is / errors.As.
func (e *CascadeError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, name := range e.FailedCollections() {
		out = append(out, e.Failed[name])
	}
	return out
}
