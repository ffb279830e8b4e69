package handler

import "net/http"

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Online bool   `json:"online"`
}

// GetHealth handles GET /healthz.
// It returns HTTP 200 while the daemon runs, with the current connectivity
// flag so the UI can show an offline banner.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Online: s.coord.Online(r.Context())})
}
