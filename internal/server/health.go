package server

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Ledger string `json:"ledger,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleHealth handles GET /healthz requests.
// Returns 200 OK if the ledger is reachable, 503 Service Unavailable otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status: "healthy",
	}

	if err := s.pinger.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Ledger = "disconnected"
		response.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	response.Ledger = "connected"
	writeJSON(w, http.StatusOK, response)
}
