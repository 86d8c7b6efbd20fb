package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-manager/internal/domain"
)

// singular names a collection's record in not-found messages.
var singular = map[string]string{
	domain.Destinations: "destination",
	domain.Transport:    "transport",
	domain.Stays:        "stay",
	domain.Activities:   "activity",
	domain.Expenses:     "expense",
	domain.Todos:        "todo",
}

// ListItems handles GET /api/{collection}/{tripId} and
// GET /api/{stays,transport}/trip/{tripId}.
func (s *Server) ListItems(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := s.items.ListByTrip(r.Context(), collection, chi.URLParam(r, "tripId"))
		if err != nil {
			s.writeError(w, r, singular[collection], err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

// GetItem handles GET /api/{stays,transport}/{id}.
func (s *Server) GetItem(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.items.GetByID(r.Context(), collection, chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, r, singular[collection], err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// CreateItem handles POST /api/{collection}.
// The body must carry the tripId of an existing trip.
func (s *Server) CreateItem(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := decodeRecord(r)
		if err != nil {
			writeDecodeError(w, err)
			return
		}
		created, err := s.items.Create(r.Context(), collection, payload)
		if err != nil {
			s.writeError(w, r, singular[collection], err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateItem handles PATCH /api/{collection}/{id}.
func (s *Server) UpdateItem(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patch, err := decodeRecord(r)
		if err != nil {
			writeDecodeError(w, err)
			return
		}
		updated, err := s.items.Update(r.Context(), collection, chi.URLParam(r, "id"), patch)
		if err != nil {
			s.writeError(w, r, singular[collection], err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// DeleteItem handles DELETE /api/{collection}/{id}. Deleting a missing
// record still answers 204.
func (s *Server) DeleteItem(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.items.Delete(r.Context(), collection, chi.URLParam(r, "id")); err != nil {
			s.writeError(w, r, singular[collection], err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
