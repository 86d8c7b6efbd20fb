package handler

import "net/http"

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status string `json:"status"`
	BackendInfo
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 with the backend the process was pinned to at startup.
func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", BackendInfo: s.backend})
}
