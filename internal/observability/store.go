package observability

import (
	"context"
	"errors"
	"time"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
)

// Store decorates a repo.Store with operation counts and latencies.
type Store struct {
	inner   repo.Store
	metrics *Metrics
}

// InstrumentStore wraps inner.
func InstrumentStore(inner repo.Store, m *Metrics) *Store {
	return &Store{inner: inner, metrics: m}
}

// Unwrap returns the decorated store.
func (s *Store) Unwrap() repo.Store { return s.inner }

func (s *Store) observe(collection, op string, start time.Time, err error) {
	st := status(err)
	// A missing record is an answer, not a failure of the backend.
	if errors.Is(err, domain.ErrNotFound) {
		st = "not_found"
	} else if errors.Is(err, domain.ErrValidation) {
		st = "invalid"
	}
	s.metrics.RepoOperations.WithLabelValues(collection, op, st).Inc()
	s.metrics.RepoDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// List records one "list" sample.
func (s *Store) List(ctx context.Context, collection string, q repo.Query) ([]domain.Record, error) {
	start := time.Now()
	recs, err := s.inner.List(ctx, collection, q)
	s.observe(collection, "list", start, err)
	return recs, err
}

// GetByID records one "get" sample.
func (s *Store) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	start := time.Now()
	rec, err := s.inner.GetByID(ctx, collection, id)
	s.observe(collection, "get", start, err)
	return rec, err
}

// Create records one "create" sample.
func (s *Store) Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
	start := time.Now()
	out, err := s.inner.Create(ctx, collection, rec)
	s.observe(collection, "create", start, err)
	return out, err
}

// Update records one "update" sample.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	start := time.Now()
	out, err := s.inner.Update(ctx, collection, id, patch)
	s.observe(collection, "update", start, err)
	return out, err
}

// Delete records one "delete" sample.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, collection, id)
	s.observe(collection, "delete", start, err)
	return err
}

// DeleteWhere records one "delete_where" sample.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filter repo.Filter) (int64, error) {
	start := time.Now()
	n, err := s.inner.DeleteWhere(ctx, collection, filter)
	s.observe(collection, "delete_where", start, err)
	return n, err
}

// WrapPurger makes a backend purge below s record one "purge" sample on the
// trips collection, so file mode cascades show up next to document mode ones.
func (s *Store) WrapPurger(p repo.Purger) repo.Purger {
	return &purger{inner: p, store: s}
}

type purger struct {
	inner repo.Purger
	store *Store
}

func (p *purger) PurgeTrip(ctx context.Context, tripID string, dependents []string) (map[string]int64, error) {
	start := time.Now()
	removed, err := p.inner.PurgeTrip(ctx, tripID, dependents)
	p.store.observe(domain.Trips, "purge", start, err)
	return removed, err
}
