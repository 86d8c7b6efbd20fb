package service

import (
	"context"
	"fmt"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
)

// labelField and dateField pick the column shown for each collection.
var (
	labelField = map[string]string{
		domain.Destinations: "name",
		domain.Transport:    "type",
		domain.Stays:        "name",
		domain.Activities:   "title",
		domain.Expenses:     "title",
		domain.Todos:        "task",
	}
	dateField = map[string]string{
		domain.Destinations: "arrivalDate",
		domain.Transport:    "departureTime",
		domain.Stays:        "checkIn",
		domain.Activities:   "date",
		domain.Expenses:     "date",
	}
)

// ExportService assembles full exports of the stored data.
type ExportService struct {
	store repo.Store
}

// NewExportService constructs an ExportService.
func NewExportService(store repo.Store) *ExportService {
	return &ExportService{store: store}
}

// Export returns one ExportRow per dependent record across all trips,
// trips oldest first. Trips with no dependents contribute one row with
// empty record fields.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	byTrip := make(map[string]map[string][]domain.Record)
	for _, name := range domain.DependentCollections {
		for _, rec := range snap[name] {
			tripID, _ := domain.Canonical(rec[domain.FieldTripID])
			if byTrip[tripID] == nil {
				byTrip[tripID] = make(map[string][]domain.Record)
			}
			byTrip[tripID][name] = append(byTrip[tripID][name], rec)
		}
	}

	rows := []domain.ExportRow{}
	for _, trip := range snap[domain.Trips] {
		base := domain.ExportRow{TripID: trip.ID()}
		base.TripTitle, _ = trip["title"].(string)
		base.TripStatus, _ = trip["status"].(string)

		deps := byTrip[trip.ID()]
		if len(deps) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, name := range domain.DependentCollections {
			for _, rec := range deps[name] {
				row := base
				row.Collection = name
				row.RecordID = rec.ID()
				row.Label, _ = rec[labelField[name]].(string)
				if f, ok := dateField[name]; ok {
					row.Date, _ = rec[f].(string)
				}
				row.Cost = costOf(name, rec)
				rows = append(rows, row)
			}
		}
	}
	return rows, nil
}

// Snapshot returns every record of every collection, oldest first.
func (s *ExportService) Snapshot(ctx context.Context) (map[string][]domain.Record, error) {
	out := make(map[string][]domain.Record, len(domain.Collections))
	q := repo.Query{Sort: []repo.SortField{{Field: domain.FieldCreatedAt}}}
	for _, name := range domain.Collections {
		recs, err := s.store.List(ctx, name, q)
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Snapshot: %w", err)
		}
		out[name] = recs
	}
	return out, nil
}
