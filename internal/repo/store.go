// Package repo defines the uniform repository contract every backend
// implements, and the schema-enforcing Repository that callers use.
// Backends (file engine, document drivers) only move records in and out of
// storage; defaults, coercion, and required-field checks happen here so they
// are identical whichever backend the process is pinned to.
package repo

import (
	"context"

	"github.com/pkordes/trip-manager/internal/domain"
)

// Filter maps a field name to the value it must loosely equal.
// See domain.LooseEqual for the comparison rules.
type Filter map[string]any

// SortField orders list results by one field.
type SortField struct {
	Field      string
	Descending bool
}

// Query selects and orders records in a List call.
// With no Sort the order is unspecified.
type Query struct {
	Filter Filter
	Sort   []SortField
}

// By is shorthand for an unsorted equality query on one field.
func By(field string, value any) Query {
	return Query{Filter: Filter{field: value}}
}

// Store is the CRUD contract shared by all backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// List returns the records of collection matching q. It never returns
	// an error for an empty result.
	List(ctx context.Context, collection string, q Query) ([]domain.Record, error)

	// GetByID returns one record. Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, collection, id string) (domain.Record, error)

	// Create stores rec under a freshly generated identifier and returns the
	// stored record including its _id.
	Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error)

	// Update merges patch into the record: only keys present in patch change.
	// Returns domain.ErrNotFound if the record does not exist.
	Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error)

	// Delete removes a record by ID. Deleting a missing record is not an error.
	Delete(ctx context.Context, collection, id string) error

	// DeleteWhere removes every record matching filter and reports how many went.
	DeleteWhere(ctx context.Context, collection string, filter Filter) (int64, error)
}

// Purger is implemented by backends that can delete a trip and all of its
// dependents in a single storage round trip.
type Purger interface {
	// PurgeTrip removes the trip and every record in dependents whose tripId
	// loosely equals tripID. The result maps collection name to records removed.
	PurgeTrip(ctx context.Context, tripID string, dependents []string) (map[string]int64, error)
}

// Wrapper is implemented by Store decorators so capabilities of the
// underlying backend stay reachable.
type Wrapper interface {
	Unwrap() Store
}

// PurgeWrapper is implemented by decorators that want to see purges run by
// a backend below them. AsPurger hands the found Purger to WrapPurger.
type PurgeWrapper interface {
	WrapPurger(p Purger) Purger
}

// AsPurger walks the decorator chain of s and returns the first Purger found,
// wrapped by every PurgeWrapper passed on the way down.
func AsPurger(s Store) (Purger, bool) {
	if s == nil {
		return nil, false
	}
	if p, ok := s.(Purger); ok {
		return p, true
	}
	w, ok := s.(Wrapper)
	if !ok {
		return nil, false
	}
	p, ok := AsPurger(w.Unwrap())
	if !ok {
		return nil, false
	}
	if pw, ok := s.(PurgeWrapper); ok {
		p = pw.WrapPurger(p)
	}
	return p, true
}
