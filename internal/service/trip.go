// Package service contains the business logic of the trip API.
// Services enforce the rules that span records (date order, parent trips,
// budget totals) and orchestrate repository calls. Field-level rules live in
// the schema registry behind repo.Repository.
package service

import (
	"context"
	"fmt"

	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
)

// TripDeleter removes a trip together with its dependents.
type TripDeleter interface {
	DeleteTrip(ctx context.Context, tripID string) (cascade.Report, error)
}

// TripListParams narrows and pages the trip list.
type TripListParams struct {
	// Archived, when set, keeps only trips whose isArchived matches.
	Archived *bool
	// Page is applied when Limit > 0.
	Page domain.PaginationParams
}

// TripPage is one page of trips plus the size of the unpaged result.
type TripPage struct {
	Items []domain.Record
	Total int
}

// TripService implements business logic for Trip operations.
type TripService struct {
	store   repo.Store
	cascade TripDeleter
}

// NewTripService constructs a TripService.
func NewTripService(store repo.Store, cascade TripDeleter) *TripService {
	return &TripService{store: store, cascade: cascade}
}

// List returns trips newest first.
func (s *TripService) List(ctx context.Context, params TripListParams) (TripPage, error) {
	q := repo.Query{Sort: []repo.SortField{{Field: domain.FieldCreatedAt, Descending: true}}}
	if params.Archived != nil {
		q.Filter = repo.Filter{"isArchived": *params.Archived}
	}

	trips, err := s.store.List(ctx, domain.Trips, q)
	if err != nil {
		return TripPage{}, fmt.Errorf("service.TripService.List: %w", err)
	}

	page := TripPage{Items: trips, Total: len(trips)}
	if params.Page.Limit > 0 {
		start, end := params.Page.Window(len(trips))
		page.Items = trips[start:end]
	}
	return page, nil
}

// GetByID returns a single trip.
// Returns domain.ErrNotFound if it does not exist.
func (s *TripService) GetByID(ctx context.Context, id string) (domain.Record, error) {
	trip, err := s.store.GetByID(ctx, domain.Trips, id)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// Create validates and persists a new trip.
// Returns domain.ErrValidation if input violates business rules.
func (s *TripService) Create(ctx context.Context, payload domain.Record) (domain.Record, error) {
	if err := validateTripDates(payload["startDate"], payload["endDate"]); err != nil {
		return nil, fmt.Errorf("service.TripService.Create: %w", err)
	}
	trip, err := s.store.Create(ctx, domain.Trips, payload)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Create: %w", err)
	}
	return trip, nil
}

// Update applies a partial update. When either date changes, the pair is
// checked against the stored values.
func (s *TripService) Update(ctx context.Context, id string, patch domain.Record) (domain.Record, error) {
	_, hasStart := patch["startDate"]
	_, hasEnd := patch["endDate"]
	if hasStart || hasEnd {
		current, err := s.store.GetByID(ctx, domain.Trips, id)
		if err != nil {
			return nil, fmt.Errorf("service.TripService.Update: %w", err)
		}
		start, end := current["startDate"], current["endDate"]
		if hasStart {
			start = patch["startDate"]
		}
		if hasEnd {
			end = patch["endDate"]
		}
		if err := validateTripDates(start, end); err != nil {
			return nil, fmt.Errorf("service.TripService.Update: %w", err)
		}
	}

	trip, err := s.store.Update(ctx, domain.Trips, id, patch)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Update: %w", err)
	}
	return trip, nil
}

// Delete removes the trip and everything that belongs to it.
// A partial failure returns the report so far and a *domain.CascadeError.
func (s *TripService) Delete(ctx context.Context, id string) (cascade.Report, error) {
	rep, err := s.cascade.DeleteTrip(ctx, id)
	if err != nil {
		return rep, fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return rep, nil
}

// Summary compares the trip budget with what has been spent: expense amounts
// plus the costs recorded on activities, stays, and transport.
func (s *TripService) Summary(ctx context.Context, id string) (domain.TripSummary, error) {
	trip, err := s.store.GetByID(ctx, domain.Trips, id)
	if err != nil {
		return domain.TripSummary{}, fmt.Errorf("service.TripService.Summary: %w", err)
	}

	sum := domain.TripSummary{
		TripID: trip.ID(),
		Budget: number(trip["budget"]),
		Counts: make(map[string]int, len(domain.DependentCollections)),
	}
	sum.Title, _ = trip["title"].(string)

	for _, name := range domain.DependentCollections {
		recs, err := s.store.List(ctx, name, repo.By(domain.FieldTripID, trip.ID()))
		if err != nil {
			return domain.TripSummary{}, fmt.Errorf("service.TripService.Summary: %w", err)
		}
		sum.Counts[name] = len(recs)
		for _, rec := range recs {
			sum.Spent += costOf(name, rec)
		}
	}
	sum.Remaining = sum.Budget - sum.Spent
	return sum, nil
}

// validateTripDates enforces endDate >= startDate when both are set and
// parse. Unparseable values are left for the schema to reject.
func validateTripDates(start, end any) error {
	s, ok1 := start.(string)
	e, ok2 := end.(string)
	if !ok1 || !ok2 || s == "" || e == "" {
		return nil
	}
	st, err1 := schema.ParseDate(s)
	et, err2 := schema.ParseDate(e)
	if err1 != nil || err2 != nil {
		return nil
	}
	if et.Before(st) {
		return fmt.Errorf("%w: endDate must not be before startDate", domain.ErrValidation)
	}
	return nil
}

// costOf returns the money a dependent record accounts for.
func costOf(collection string, rec domain.Record) float64 {
	switch collection {
	case domain.Expenses:
		return number(rec["amount"])
	case domain.Activities, domain.Stays, domain.Transport:
		return number(rec["cost"])
	}
	return 0
}

func number(v any) float64 {
	f, _ := v.(float64)
	return f
}
