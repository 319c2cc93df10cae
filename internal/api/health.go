package api

import (
	"context"
	"net/http"
	"time"
)

const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	Status         string  `json:"status"`
	Database       string  `json:"database"`
	Workloads      int     `json:"workloads"`
	Environments   int     `json:"environments"`
	DefaultTimeout float64 `json:"default_timeout_s"`
}

// handleHealthz reports whether the results database answers and what the
// engine can run. An unreachable database makes the server unhealthy.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Registry().List()
	resp := healthResponse{
		Status:         "ok",
		Database:       "ok",
		Workloads:      len(cat.Workloads),
		Environments:   len(cat.Environments),
		DefaultTimeout: s.engine.DefaultTimeout().Seconds(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	status := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check: database unreachable", "error", err)
		resp.Status = "unavailable"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, resp)
}
