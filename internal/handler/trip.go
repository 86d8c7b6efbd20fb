package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/service"
)

// ListTrips handles GET /api/trips.
// Supports ?archived=true|false and ?page= / ?limit= (page defaults to 1,
// limit to 20, max 100). When paging the unpaged size is sent in X-Total-Count.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	params, err := tripListParams(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	page, err := s.trips.List(r.Context(), params)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	if params.Page.Limit > 0 {
		w.Header().Set("X-Total-Count", strconv.Itoa(page.Total))
	}
	writeJSON(w, http.StatusOK, page.Items)
}

// CreateTrip handles POST /api/trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeRecord(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	created, err := s.trips.Create(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTrip handles GET /api/trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PATCH /api/trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	patch, err := decodeRecord(r)
	if err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := s.trips.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /api/trips/{id}.
// The trip and all of its records are removed; the response reports how many
// records went from each collection. Deleting a missing trip reports zeros.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	rep, err := s.trips.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrCascade) {
			s.writeCascadeError(w, r, rep, err)
			return
		}
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// GetTripSummary handles GET /api/trips/{id}/summary.
func (s *Server) GetTripSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.trips.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, "trip", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// --- query helpers ----------------------------------------------------------

func tripListParams(r *http.Request) (service.TripListParams, error) {
	q := r.URL.Query()
	var params service.TripListParams

	if v := q.Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, errors.New("archived must be true or false")
		}
		params.Archived = &b
	}

	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		return params, err
	}
	limit, err := optionalInt(q.Get("limit"), "limit")
	if err != nil {
		return params, err
	}
	if page != nil || limit != nil {
		params.Page = domain.NewPaginationParams(page, limit)
	}
	return params, nil
}

func optionalInt(v, name string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, errors.New(name + " must be an integer")
	}
	return &n, nil
}
