/*
handlers.go - HTTP API handlers for the LCOE engine

PURPOSE:
  Exposes the calculation engine via REST. Handles HTTP request/response
  and JSON serialization, delegates all arithmetic to the engine package.

ENDPOINTS:
  POST   /api/estimate           Evaluate one site, nothing persisted
  POST   /api/runs               Run a batch, persist results, return them
  GET    /api/runs               List stored runs
  GET    /api/runs/{id}          One run's metadata
  GET    /api/runs/{id}/results  One run's results, in input order
  GET    /api/parameters         The loaded parameter set
  GET    /api/health             Liveness probe
  GET    /metrics                Prometheus metrics

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: data errors (bad site input, undefined per-site computation)
  - 404: unknown run
  - 500: config errors and storage failures

SEE ALSO:
  - dto.go:    request/response structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gridwatt/lcoe-engine/engine"
	"github.com/gridwatt/lcoe-engine/metrics"
	"github.com/gridwatt/lcoe-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Params    engine.ParameterSet
	Collector *metrics.Collector

	// Workers bounds batch parallelism; <= 0 means NumCPU.
	Workers int
}

// NewHandler creates a handler around a validated parameter set.
func NewHandler(store *sqlite.Store, params engine.ParameterSet, collector *metrics.Collector) *Handler {
	return &Handler{
		Store:     store,
		Params:    params,
		Collector: collector,
	}
}

// =============================================================================
// SINGLE-SITE ESTIMATE
// =============================================================================

// Estimate evaluates one site without persisting anything.
// POST /api/estimate
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req SiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := engine.EvaluateSite(req.toRecord(), h.Params)
	if err != nil {
		if engine.IsDataError(err) {
			writeError(w, http.StatusBadRequest, "Invalid site input", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Evaluation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toSiteResultDTO(result))
}

// =============================================================================
// BATCH RUNS
// =============================================================================

// CreateRun evaluates a submitted batch, persists it, and returns the
// results. Per-site failures are reported in the response body and never
// fail the request on their own.
// POST /api/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Sites) == 0 {
		writeError(w, http.StatusBadRequest, "Batch is empty", nil)
		return
	}

	records := make([]engine.SiteRecord, len(req.Sites))
	for i, s := range req.Sites {
		records[i] = s.toRecord()
	}

	start := time.Now()
	report, err := engine.RunBatchParallel(r.Context(), records, h.Params, h.Workers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Batch aborted", err)
		return
	}
	h.Collector.ObserveBatch(len(report.Results), len(report.Failures),
		report.WarningCount(), time.Since(start))

	ctx := r.Context()
	run, err := h.Store.CreateRun(ctx, "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create run", err)
		return
	}
	if err := h.Store.AppendResults(ctx, run.ID, report.Results); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist results", err)
		return
	}
	if err := h.Store.FinishRun(ctx, run.ID, len(report.Results), len(report.Failures)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to finish run", err)
		return
	}

	resp := BatchResponse{
		RunID:    run.ID,
		Results:  make([]SiteResultDTO, len(report.Results)),
		Warnings: report.WarningCount(),
	}
	for i, res := range report.Results {
		resp.Results[i] = toSiteResultDTO(res)
	}
	for _, f := range report.Failures {
		resp.Failures = append(resp.Failures, SiteFailureDTO{
			Index:  f.Index,
			SiteID: f.SiteID,
			Error:  f.Err.Error(),
		})
	}

	writeJSON(w, http.StatusCreated, resp)
}

// ListRuns returns all stored runs, most recent first.
// GET /api/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunSummaryDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toRunSummaryDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns one run's metadata.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunSummaryDTO(*run))
}

// GetRunResults returns one run's results in input order.
// GET /api/runs/{id}/results
func (h *Handler) GetRunResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if _, err := h.Store.GetRun(r.Context(), runID); err != nil {
		if errors.Is(err, sqlite.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "Run not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}

	results, err := h.Store.LoadResults(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load results", err)
		return
	}

	dtos := make([]SiteResultDTO, len(results))
	for i, res := range results {
		dtos[i] = toSiteResultDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PARAMETERS AND HEALTH
// =============================================================================

// GetParameters echoes the loaded parameter set.
// GET /api/parameters
func (h *Handler) GetParameters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toParametersDTO(h.Params))
}

// Health is a liveness probe.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func toRunSummaryDTO(run sqlite.Run) RunSummaryDTO {
	dto := RunSummaryDTO{
		ID:           run.ID,
		StartedAt:    run.StartedAt.Format(time.RFC3339),
		ConfigDigest: run.ConfigDigest,
		SiteCount:    run.SiteCount,
		FailureCount: run.FailureCount,
	}
	if run.FinishedAt != nil {
		s := run.FinishedAt.Format(time.RFC3339)
		dto.FinishedAt = &s
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusRecorder captures the response status for metric labels.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request count/duration metrics.
func (h *Handler) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		h.Collector.APIRequestsTotal.
			WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		h.Collector.APIRequestDuration.
			WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
