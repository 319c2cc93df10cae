package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/tempo/internal/model"
	"github.com/seantiz/tempo/internal/registry"
	"github.com/seantiz/tempo/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	maxBodySize      = 1 << 20 // 1 MB
)

// createRunRequest is the JSON body for POST /v1/runs and /v1/runs/async.
type createRunRequest struct {
	model.Descriptor
	Suite string `json:"suite"`
}

// listRunsResponse wraps the paginated list response.
type listRunsResponse struct {
	Runs   []*model.Run `json:"runs"`
	Total  int          `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// decodeRunRequest reads and validates a run request, writing the error
// response itself when it returns false.
func (s *Server) decodeRunRequest(w http.ResponseWriter, r *http.Request) (createRunRequest, bool) {
	var req createRunRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}

	if req.Workload == "" {
		s.writeError(w, http.StatusBadRequest, "workload is required")
		return req, false
	}
	if req.TimeoutS < 0 {
		s.writeError(w, http.StatusBadRequest, "timeout_s must not be negative")
		return req, false
	}
	if req.Name == "" {
		req.Name = req.Workload
	}
	return req, true
}

// writeSubmitError maps an engine error to a response. Unknown names are the
// caller's mistake; anything else is ours.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrUnknownWorkload) || errors.Is(err, registry.ErrUnknownEnvironment) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Error("submit run", "error", err)
	s.writeError(w, http.StatusInternalServerError, "failed to run benchmark")
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	// The response is written only once the benchmark finishes.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Error("set write deadline for run", "error", err)
	}

	run, err := s.engine.Run(r.Context(), req.Suite, req.Descriptor, 0)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleAsyncRun(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRunRequest(w, r)
	if !ok {
		return
	}

	run, err := s.engine.Submit(r.Context(), req.Suite, req.Descriptor)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("get run", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", defaultListLimit)
	offset := parseIntQuery(r, "offset", 0)

	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.store.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	if runs == nil {
		runs = []*model.Run{}
	}

	s.writeJSON(w, http.StatusOK, listRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
