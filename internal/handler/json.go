package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pkordes/trip-manager/internal/domain"
)

var errTooLarge = errors.New("request body too large")

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the client may be gone; nothing useful to do.
	json.NewEncoder(w).Encode(v)
}

// decodeRecord reads a JSON object body into a Record.
func decodeRecord(r *http.Request) (domain.Record, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	var rec domain.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, errTooLarge
		case errors.Is(err, io.EOF):
			return nil, errors.New("request body is required")
		}
		return nil, fmt.Errorf("request body must be a JSON object: %v", err)
	}
	if rec == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return rec, nil
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: ErrorDetail{Code: codeTooLarge, Message: err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
}
