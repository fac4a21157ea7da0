package web

import (
	"net/http"
	"runtime"
	"time"
)

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"go_version":     runtime.Version(),
		"backend_url":    s.client.BaseURL(),
	}
	if s.healthCheck != nil {
		resp["backend"] = s.healthCheck.GetStatus()
	}
	writeJSON(w, http.StatusOK, resp)
}

// readyHandler reports ready while the backend is reachable. Until the first
// probe completes the backend counts as reachable.
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck == nil || s.healthCheck.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
