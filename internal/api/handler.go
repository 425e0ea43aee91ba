// Package api exposes the benchmark service over HTTP. Handlers translate
// between JSON request/response shapes and the service layer; domain errors
// map to status codes through httpStatusFromDomainError.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"querybench/internal/domain"
	"querybench/internal/service/benchmark"
)

// Handler serves the /v1 benchmark API.
type Handler struct {
	svc    *benchmark.Service
	logger *slog.Logger
}

// NewHandler creates an API handler backed by the benchmark service.
func NewHandler(svc *benchmark.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts all benchmark endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/runs", h.triggerRun)
	r.Get("/runs", h.listRuns)
	r.Get("/runs/{runID}", h.getRun)
	r.Delete("/runs/{runID}", h.cancelRun)
	r.Get("/runs/{runID}/results", h.listResults)
	r.Get("/runs/{runID}/report", h.getReport)
	r.Get("/suites", h.listSuites)
	return r
}

type triggerRunRequest struct {
	Suite       string `json:"suite"`
	Concurrency int    `json:"concurrency,omitempty"`
}

type runResponse struct {
	ID           string  `json:"id"`
	Suite        string  `json:"suite"`
	TriggerType  string  `json:"trigger_type"`
	Status       string  `json:"status"`
	Concurrency  int     `json:"concurrency"`
	QueryCount   int     `json:"query_count"`
	ErrorMessage *string `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
}

type queryResultResponse struct {
	QueryName    string  `json:"query_name"`
	Outcome      string  `json:"outcome"`
	ElapsedMS    int64   `json:"elapsed_ms"`
	Rows         int64   `json:"rows"`
	Bytes        int64   `json:"bytes"`
	CPUTimeMS    int64   `json:"cpu_time_ms"`
	WallTimeMS   int64   `json:"wall_time_ms"`
	EngineMS     int64   `json:"engine_elapsed_ms"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type suiteResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Queries     []string `json:"queries"`
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	var req triggerRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, domain.ErrValidation("request body must be JSON: %v", err))
		return
	}
	if req.Suite == "" {
		h.respondError(w, r, domain.ErrValidation("suite is required"))
		return
	}

	run, err := h.svc.TriggerRun(r.Context(), req.Suite, benchmark.TriggerOptions{
		Concurrency: req.Concurrency,
		TriggerType: domain.TriggerTypeManual,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, runToAPI(run))
}

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.respondError(w, r, domain.ErrValidation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]runResponse, len(runs))
	for i := range runs {
		out[i] = runToAPI(&runs[i])
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"runs": out})
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, runToAPI(run))
}

func (h *Handler) cancelRun(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CancelQueued(r.Context(), chi.URLParam(r, "runID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.Results(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]queryResultResponse, len(results))
	for i := range results {
		out[i] = queryResultToAPI(&results[i])
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Report(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, report)
}

func (h *Handler) listSuites(w http.ResponseWriter, r *http.Request) {
	suites, err := h.svc.Suites()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	out := make([]suiteResponse, len(suites))
	for i, s := range suites {
		names := make([]string, len(s.Queries))
		for j, q := range s.Queries {
			names[j] = q.Name
		}
		out[i] = suiteResponse{Name: s.Name, Description: s.Description, Queries: names}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"suites": out})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	h.respondJSON(w, status, map[string]any{
		"code":    status,
		"message": err.Error(),
	})
}
