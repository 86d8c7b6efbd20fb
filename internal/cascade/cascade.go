// Package cascade deletes a trip together with every record that references
// it through tripId.
package cascade

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
)

// Report lists how many records each collection lost.
type Report struct {
	TripID  string           `json:"tripId"`
	Removed map[string]int64 `json:"removed"`
}

// Observer is notified once per DeleteTrip call. err is nil on success.
type Observer interface {
	ObserveCascade(err error)
}

// Orchestrator runs trip cascades against a Store.
type Orchestrator struct {
	store    repo.Store
	logger   *slog.Logger
	observer Observer
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for partial-failure warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithObserver registers an Observer (typically the metrics set).
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New returns an Orchestrator deleting through store.
func New(store repo.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// DeleteTrip removes the trip and then every dependent collection's records
// with a matching tripId. Deleting an unknown trip succeeds with zero counts.
//
// Backends that implement repo.Purger do the whole cascade in one step.
// Otherwise collections are deleted one at a time and a failure leaves the
// already-completed deletions in place; the returned *domain.CascadeError
// says which collections were and were not cleared.
func (o *Orchestrator) DeleteTrip(ctx context.Context, tripID string) (Report, error) {
	rep, err := o.deleteTrip(ctx, tripID)
	if o.observer != nil {
		o.observer.ObserveCascade(err)
	}
	return rep, err
}

func (o *Orchestrator) deleteTrip(ctx context.Context, tripID string) (Report, error) {
	rep := Report{TripID: tripID, Removed: make(map[string]int64, len(domain.Collections))}
	if tripID == "" {
		return rep, nil
	}

	if p, ok := repo.AsPurger(o.store); ok {
		removed, err := p.PurgeTrip(ctx, tripID, domain.DependentCollections)
		if err != nil {
			return rep, fmt.Errorf("cascade.Orchestrator.DeleteTrip: %w", err)
		}
		for name, n := range removed {
			rep.Removed[name] = n
		}
		return rep, nil
	}

	n, err := o.store.DeleteWhere(ctx, domain.Trips, repo.Filter{domain.FieldID: tripID})
	if err != nil {
		// Nothing has been removed yet; the dependents stay attached to a live trip.
		return rep, &domain.CascadeError{
			TripID: tripID,
			Failed: map[string]error{domain.Trips: err},
		}
	}
	rep.Removed[domain.Trips] = n

	cerr := &domain.CascadeError{TripID: tripID, Succeeded: []string{domain.Trips}}
	for _, name := range domain.DependentCollections {
		n, err := o.store.DeleteWhere(ctx, name, repo.Filter{domain.FieldTripID: tripID})
		if err != nil {
			if cerr.Failed == nil {
				cerr.Failed = make(map[string]error)
			}
			cerr.Failed[name] = err
			continue
		}
		rep.Removed[name] = n
		cerr.Succeeded = append(cerr.Succeeded, name)
	}

	if len(cerr.Failed) > 0 {
		o.logger.WarnContext(ctx, "cascade delete left orphans",
			slog.String("trip_id", tripID),
			slog.Any("failed", cerr.FailedCollections()),
			slog.Any("succeeded", cerr.Succeeded),
		)
		return rep, cerr
	}
	return rep, nil
}
