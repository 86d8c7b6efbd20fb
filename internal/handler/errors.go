package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/trip-manager/internal/cascade"
	"github.com/pkordes/trip-manager/internal/domain"
)

// Error codes carried in ErrorDetail.Code.
const (
	codeNotFound   = "not_found"
	codeValidation = "validation_error"
	codeTooLarge   = "request_too_large"
	codeCascade    = "cascade_failure"
	codeInternal   = "internal"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail is the machine-readable code plus a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CascadeFailureResponse reports a trip deletion that stopped part way.
// Removed lists what was already deleted; nothing is rolled back.
type CascadeFailureResponse struct {
	Error   ErrorDetail      `json:"error"`
	TripID  string           `json:"tripId"`
	Removed map[string]int64 `json:"removed"`
	Failed  []string         `json:"failed"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the message because the handler is the layer that
// knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: codeNotFound, Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: codeValidation, Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: codeValidation, Message: message}}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.TripService.Create: repo.Repository.Create: validation error: title is required"
// → "title is required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	marker := domain.ErrValidation.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// writeError maps a service error to its HTTP status and error body.
// what names the resource in not-found messages, e.g. "trip".
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, what string, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(what+" not found"))
	case errors.Is(err, domain.ErrUnknownCollection):
		writeJSON(w, http.StatusNotFound, notFoundBody("unknown collection"))
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: codeInternal, Message: "internal server error"},
		})
	}
}

// writeCascadeError reports a partial trip deletion.
func (s *Server) writeCascadeError(w http.ResponseWriter, r *http.Request, rep cascade.Report, err error) {
	body := CascadeFailureResponse{
		Error:   ErrorDetail{Code: codeCascade, Message: err.Error()},
		TripID:  rep.TripID,
		Removed: rep.Removed,
		Failed:  []string{},
	}
	var cerr *domain.CascadeError
	if errors.As(err, &cerr) {
		body.Error.Message = cerr.Error()
		body.Failed = cerr.FailedCollections()
	}
	if body.Removed == nil {
		body.Removed = map[string]int64{}
	}
	s.logger.ErrorContext(r.Context(), "trip delete incomplete", "trip_id", rep.TripID, "failed", body.Failed, "error", err)
	writeJSON(w, http.StatusInternalServerError, body)
}
