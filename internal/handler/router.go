package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/middleware"
	"github.com/pkordes/trip-manager/spec"
)

// RouterConfig carries the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	Logger       *slog.Logger
	CORSOrigins  []string
	MaxBodyBytes int64
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
}

// listedByTripPath are the collections whose list route is /{collection}/{tripId}.
// The others are listed at /{collection}/trip/{tripId} and expose GET by id.
var listedByTripPath = map[string]bool{
	domain.Destinations: true,
	domain.Activities:   true,
	domain.Expenses:     true,
	domain.Todos:        true,
}

// NewRouter builds the chi router for s.
// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = s.logger
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, notFoundBody("route not found"))
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.ListTrips)
			r.Post("/", s.CreateTrip)
			r.Get("/{id}", s.GetTrip)
			r.Patch("/{id}", s.UpdateTrip)
			r.Delete("/{id}", s.DeleteTrip)
			r.Get("/{id}/summary", s.GetTripSummary)
		})

		for _, name := range domain.DependentCollections {
			r.Route("/"+name, func(r chi.Router) {
				if listedByTripPath[name] {
					r.Get("/{tripId}", s.ListItems(name))
				} else {
					r.Get("/trip/{tripId}", s.ListItems(name))
					r.Get("/{id}", s.GetItem(name))
				}
				r.Post("/", s.CreateItem(name))
				r.Patch("/{id}", s.UpdateItem(name))
				r.Delete("/{id}", s.DeleteItem(name))
			})
		}

		r.Get("/export", s.GetExport)
	})

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	//nolint:errcheck
	w.Write(spec.OpenAPI)
}
