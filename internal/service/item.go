package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
)

// listOrder is the order each dependent list is returned in.
var listOrder = map[string][]repo.SortField{
	domain.Destinations: {{Field: "order"}},
	domain.Activities:   {{Field: "date"}, {Field: "timeSlot"}},
	domain.Transport:    {{Field: domain.FieldCreatedAt}},
	domain.Stays:        {{Field: domain.FieldCreatedAt}},
	domain.Expenses:     {{Field: domain.FieldCreatedAt}},
	domain.Todos:        {{Field: domain.FieldCreatedAt}},
}

// ItemService implements the operations shared by the six collections that
// belong to a trip.
type ItemService struct {
	store repo.Store
}

// NewItemService constructs an ItemService.
func NewItemService(store repo.Store) *ItemService {
	return &ItemService{store: store}
}

// ListByTrip returns the trip's records of collection in display order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItemService) ListByTrip(ctx context.Context, collection, tripID string) ([]domain.Record, error) {
	order, ok := listOrder[collection]
	if !ok {
		return nil, fmt.Errorf("service.ItemService.ListByTrip: %w: %q", domain.ErrUnknownCollection, collection)
	}
	recs, err := s.store.List(ctx, collection, repo.Query{
		Filter: repo.Filter{domain.FieldTripID: tripID},
		Sort:   order,
	})
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.ListByTrip: %w", err)
	}
	if recs == nil {
		return []domain.Record{}, nil
	}
	return recs, nil
}

// GetByID returns a single record.
// Returns domain.ErrNotFound if it does not exist.
func (s *ItemService) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	if _, ok := listOrder[collection]; !ok {
		return nil, fmt.Errorf("service.ItemService.GetByID: %w: %q", domain.ErrUnknownCollection, collection)
	}
	rec, err := s.store.GetByID(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.GetByID: %w", err)
	}
	return rec, nil
}

// Create verifies the parent trip exists, then persists the record.
// Returns domain.ErrValidation if the payload is invalid or tripId does not
// reference an existing trip.
//
// The trip check is a separate read that runs before the write. It is not
// atomic with a concurrent DeleteTrip cascade, so a record created while its
// trip is being deleted can outlive the trip.
func (s *ItemService) Create(ctx context.Context, collection string, payload domain.Record) (domain.Record, error) {
	if _, ok := listOrder[collection]; !ok {
		return nil, fmt.Errorf("service.ItemService.Create: %w: %q", domain.ErrUnknownCollection, collection)
	}
	if tripID, ok := payload[domain.FieldTripID]; ok && tripID != nil {
		if err := s.requireTrip(ctx, tripID); err != nil {
			return nil, fmt.Errorf("service.ItemService.Create: %w", err)
		}
	}
	rec, err := s.store.Create(ctx, collection, payload)
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.Create: %w", err)
	}
	return rec, nil
}

// Update applies a partial update. Moving a record to another trip requires
// that trip to exist at the time of the check, with the same caveat as Create.
func (s *ItemService) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	if _, ok := listOrder[collection]; !ok {
		return nil, fmt.Errorf("service.ItemService.Update: %w: %q", domain.ErrUnknownCollection, collection)
	}
	if tripID, ok := patch[domain.FieldTripID]; ok && tripID != nil {
		if err := s.requireTrip(ctx, tripID); err != nil {
			return nil, fmt.Errorf("service.ItemService.Update: %w", err)
		}
	}
	rec, err := s.store.Update(ctx, collection, id, patch)
	if err != nil {
		return nil, fmt.Errorf("service.ItemService.Update: %w", err)
	}
	return rec, nil
}

// Delete removes a record. Deleting a missing record succeeds.
func (s *ItemService) Delete(ctx context.Context, collection, id string) error {
	if _, ok := listOrder[collection]; !ok {
		return fmt.Errorf("service.ItemService.Delete: %w: %q", domain.ErrUnknownCollection, collection)
	}
	if err := s.store.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("service.ItemService.Delete: %w", err)
	}
	return nil
}

func (s *ItemService) requireTrip(ctx context.Context, tripID any) error {
	id, ok := domain.Canonical(tripID)
	if !ok || id == "" {
		return fmt.Errorf("%w: tripId must be a string", domain.ErrValidation)
	}
	_, err := s.store.GetByID(ctx, domain.Trips, id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: trip %s does not exist", domain.ErrValidation, id)
	}
	return err
}
