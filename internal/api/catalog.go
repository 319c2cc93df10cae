package api

import (
	"net/http"

	"github.com/seantiz/tempo/internal/registry"
)

// catalogResponse is the JSON response for GET /v1/catalog.
type catalogResponse struct {
	Workloads      []registry.Info `json:"workloads"`
	Environments   []registry.Info `json:"environments"`
	DefaultTimeout float64         `json:"default_timeout_s"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	cat := s.engine.Registry().List()
	s.writeJSON(w, http.StatusOK, catalogResponse{
		Workloads:      cat.Workloads,
		Environments:   cat.Environments,
		DefaultTimeout: s.engine.DefaultTimeout().Seconds(),
	})
}
