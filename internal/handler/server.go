// Package handler implements the HTTP handlers for the trip API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, item.go, export.go) but share the same Server
// struct so they can access its dependencies. Routes are registered in
// router.go.
package handler

import (
	"context"
	"log/slog"

	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching a backend or the service layer.
type TripServicer interface {
	List(ctx context.Context, params service.TripListParams) (service.TripPage, error)
	GetByID(ctx context.Context, id string) (domain.Record, error)
	Create(ctx context.Context, payload domain.Record) (domain.Record, error)
	Update(ctx context.Context, id string, patch domain.Record) (domain.Record, error)
	Delete(ctx context.Context, id string) (cascade.Report, error)
	Summary(ctx context.Context, id string) (domain.TripSummary, error)
}

// ItemServicer defines the operations shared by the six trip-owned collections.
type ItemServicer interface {
	ListByTrip(ctx context.Context, collection, tripID string) ([]domain.Record, error)
	GetByID(ctx context.Context, collection, id string) (domain.Record, error)
	Create(ctx context.Context, collection string, payload domain.Record) (domain.Record, error)
	Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error)
	Delete(ctx context.Context, collection, id string) error
}

// Exporter produces the flat export table.
type Exporter interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// BackendInfo describes the storage backend the process is pinned to.
type BackendInfo struct {
	Mode   string `json:"backend"`
	Driver string `json:"driver"`
}

// Server holds the dependencies of every handler.
type Server struct {
	trips   TripServicer
	items   ItemServicer
	export  Exporter
	backend BackendInfo
	logger  *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger discards handler logs.
func NewServer(trips TripServicer, items ItemServicer, export Exporter, backend BackendInfo, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{trips: trips, items: items, export: export, backend: backend, logger: logger}
}
