package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/schema"
)

// Repository applies the schema registry in front of a backend Store.
// It is the Store every caller should use; the backend it wraps only ever
// sees validated, defaulted, JSON-native records.
type Repository struct {
	backend  Store
	registry *schema.Registry
	now      func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for generated timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// New wraps backend with the given registry.
func New(backend Store, registry *schema.Registry, opts ...Option) *Repository {
	r := &Repository{backend: backend, registry: registry, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Unwrap returns the backend store.
func (r *Repository) Unwrap() Store { return r.backend }

// List returns matching records; the result is never nil.
func (r *Repository) List(ctx context.Context, collection string, q Query) ([]domain.Record, error) {
	if _, err := r.registry.Lookup(collection); err != nil {
		return nil, fmt.Errorf("repo.Repository.List: %w", err)
	}
	recs, err := r.backend.List(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.List: %w", err)
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}

// GetByID returns a single record or domain.ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	if _, err := r.registry.Lookup(collection); err != nil {
		return nil, fmt.Errorf("repo.Repository.GetByID: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("repo.Repository.GetByID: %w", domain.ErrNotFound)
	}
	rec, err := r.backend.GetByID(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.GetByID: %w", err)
	}
	return rec, nil
}

// Create validates payload, fills defaults, and stores it.
// Returns domain.ErrValidation when a required field is missing or invalid.
func (r *Repository) Create(ctx context.Context, collection string, payload domain.Record) (domain.Record, error) {
	rec, err := r.registry.Create(collection, payload, r.now())
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.Create: %w", err)
	}
	created, err := r.backend.Create(ctx, collection, rec)
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.Create: %w", err)
	}
	return created, nil
}

// Update validates the present keys of patch and merges them.
// Returns domain.ErrNotFound if the record does not exist.
func (r *Repository) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	clean, err := r.registry.Patch(collection, patch)
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.Update: %w", err)
	}
	if id == "" {
		return nil, fmt.Errorf("repo.Repository.Update: %w", domain.ErrNotFound)
	}
	updated, err := r.backend.Update(ctx, collection, id, clean)
	if err != nil {
		return nil, fmt.Errorf("repo.Repository.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a record; deleting a missing record succeeds.
func (r *Repository) Delete(ctx context.Context, collection, id string) error {
	if _, err := r.registry.Lookup(collection); err != nil {
		return fmt.Errorf("repo.Repository.Delete: %w", err)
	}
	if id == "" {
		return nil
	}
	if err := r.backend.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("repo.Repository.Delete: %w", err)
	}
	return nil
}

// DeleteWhere removes every record matching filter.
func (r *Repository) DeleteWhere(ctx context.Context, collection string, filter Filter) (int64, error) {
	if _, err := r.registry.Lookup(collection); err != nil {
		return 0, fmt.Errorf("repo.Repository.DeleteWhere: %w", err)
	}
	n, err := r.backend.DeleteWhere(ctx, collection, filter)
	if err != nil {
		return n, fmt.Errorf("repo.Repository.DeleteWhere: %w", err)
	}
	return n, nil
}
