/*
handlers.go - HTTP API handlers for the allocation engine

PURPOSE:
  Exposes the weekly matrix, the manual override write path and the
  reports via REST API. Handles HTTP request/response and JSON, and
  delegates to the matrix, reports and factory packages.

ENDPOINTS:
  Matrix:
    GET    /api/allocations/weekly?current_week=YYYY-MM-DD
    PUT    /api/allocations/weekly/{resourceId}/{weekStart}   {"person_days": 3}
    DELETE /api/allocations/weekly/{resourceId}/{weekStart}

  Reports:
    GET    /api/reports/conflicts?from&to
    GET    /api/reports/utilization?from&to&resource_ids=a,b
    GET    /api/reports/capacity-forecast?from&to
    GET    /api/reports/skill-capacity-forecast?from&to&skill_function&skill_sub_function
    GET    /api/reports/release-timeline/{releaseId}?year=YYYY
    POST   /api/reports                                        {"type": "...", ...}

  Resources:
    GET    /api/resources
    POST   /api/resources
    GET    /api/resources/{id}

  Releases:
    GET    /api/releases/{id}/allocations
    PUT    /api/releases/{id}/allocations                      assignment output

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Allocations, adjustments and resources
  - Matrix / Editor: Grid reads and single-cell writes
  - Reports: Report service
  - Factories: JSON to engine types

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown resource or release
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/warp/allocation-engine/config"
	"github.com/warp/allocation-engine/factory"
	"github.com/warp/allocation-engine/generic"
	"github.com/warp/allocation-engine/matrix"
	"github.com/warp/allocation-engine/reports"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API needs from persistence. Reset is used by scenarios.
type Store interface {
	generic.Store
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store             Store
	Matrix            *matrix.Builder
	Editor            *matrix.Editor
	Reports           *reports.Service
	ReportFactory     *factory.ReportFactory
	AllocationFactory *factory.AllocationFactory
	Logger            *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the engine on top of store.
func NewHandler(store Store, cfg config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ledger := generic.NewLedger(store, store)
	agg := generic.NewWeeklyAggregator(logger)
	return &Handler{
		Store:             store,
		Matrix:            matrix.NewBuilder(store, ledger, agg, cfg.Window()),
		Editor:            matrix.NewEditor(store, store),
		Reports:           reports.NewService(store, ledger, agg, cfg.Reports()),
		ReportFactory:     factory.NewReportFactory(),
		AllocationFactory: factory.NewAllocationFactory(),
		Logger:            logger,
	}
}

// =============================================================================
// MATRIX HANDLERS
// =============================================================================

// GetWeeklyMatrix returns the grid around current_week (default: this week).
// GET /api/allocations/weekly
func (h *Handler) GetWeeklyMatrix(w http.ResponseWriter, r *http.Request) {
	current := h.Reports.CurrentWeek()
	if v := r.URL.Query().Get("current_week"); v != "" {
		tp, err := generic.ParseDate("current_week", v)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		current = tp
	}

	m, err := h.Matrix.Build(r.Context(), current)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMatrixDTO(m))
}

// SetWeeklyAllocation overrides one resource-week.
// PUT /api/allocations/weekly/{resourceId}/{weekStart}
func (h *Handler) SetWeeklyAllocation(w http.ResponseWriter, r *http.Request) {
	resourceID, week, ok := h.cellParams(w, r)
	if !ok {
		return
	}

	var req SetWeeklyAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.PersonDays == nil {
		h.fail(w, r, &generic.ValidationError{Field: "person_days", Message: "required"})
		return
	}

	adj, err := h.Editor.SetWeeklyAllocation(r.Context(), resourceID, week, *req.PersonDays)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("weekly allocation set",
		"resource_id", resourceID, "week_start", week.String(), "person_days", adj.PersonDays.String())
	writeJSON(w, http.StatusOK, toAdjustmentDTO(adj))
}

// ClearWeeklyAllocation removes the override of one resource-week.
// DELETE /api/allocations/weekly/{resourceId}/{weekStart}
func (h *Handler) ClearWeeklyAllocation(w http.ResponseWriter, r *http.Request) {
	resourceID, week, ok := h.cellParams(w, r)
	if !ok {
		return
	}
	if err := h.Editor.ClearWeeklyAllocation(r.Context(), resourceID, week); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cellParams(w http.ResponseWriter, r *http.Request) (generic.ResourceID, generic.TimePoint, bool) {
	resourceID := generic.ResourceID(chi.URLParam(r, "resourceId"))
	week, err := generic.ParseDate("week_start", chi.URLParam(r, "weekStart"))
	if err != nil {
		h.fail(w, r, err)
		return "", generic.TimePoint{}, false
	}
	return resourceID, week, true
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetConflicts lists over-allocated resource-weeks.
// GET /api/reports/conflicts
func (h *Handler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	rep, err := h.Reports.Conflicts(r.Context(), reports.ConflictsRequest{Range: rng})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConflictsDTO(rep))
}

// GetUtilization reports allocated / capacity per resource-week.
// GET /api/reports/utilization
func (h *Handler) GetUtilization(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	req := reports.UtilizationRequest{Range: rng}
	if v := r.URL.Query().Get("resource_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.ResourceIDs = append(req.ResourceIDs, generic.ResourceID(id))
			}
		}
	}

	rep, err := h.Reports.Utilization(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUtilizationDTO(rep))
}

// GetCapacityForecast reports team-wide availability per week.
// GET /api/reports/capacity-forecast
func (h *Handler) GetCapacityForecast(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	rep, err := h.Reports.CapacityForecast(r.Context(), reports.CapacityForecastRequest{Range: rng})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toForecastDTO(rep.Weeks))
}

// GetSkillCapacityForecast reports availability per skill group and week.
// GET /api/reports/skill-capacity-forecast
func (h *Handler) GetSkillCapacityForecast(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.dateRange(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	rep, err := h.Reports.SkillCapacityForecast(r.Context(), reports.SkillCapacityForecastRequest{
		Range:            rng,
		SkillFunction:    q.Get("skill_function"),
		SkillSubFunction: q.Get("skill_sub_function"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSkillForecastDTO(rep))
}

// GetReleaseTimeline reports one release's weekly effort.
// GET /api/reports/release-timeline/{releaseId}
func (h *Handler) GetReleaseTimeline(w http.ResponseWriter, r *http.Request) {
	req := reports.ReleaseTimelineRequest{ReleaseID: generic.ReleaseID(chi.URLParam(r, "releaseId"))}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("invalid year %q", v)})
			return
		}
		req.Year = &year
	}

	tl, err := h.Reports.ReleaseTimeline(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimelineDTO(tl))
}

// RunReport runs any report described by a typed JSON request.
// POST /api/reports
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	req, err := h.ReportFactory.ParseRequest(body)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.Reports.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResultDTO{Type: string(res.Kind()), Result: toResultDTO(res)})
}

func (h *Handler) dateRange(w http.ResponseWriter, r *http.Request) (reports.DateRange, bool) {
	q := r.URL.Query()
	rng, err := factory.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		h.fail(w, r, err)
		return rng, false
	}
	return rng, true
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// ListResources returns all resource profiles.
// GET /api/resources
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Store.ListResources(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dtos := make([]ResourceDTO, len(resources))
	for i, res := range resources {
		dtos[i] = toResourceDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateResource creates or updates a resource profile.
// POST /api/resources
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	res := req.toResource()
	if err := res.Validate(); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Store.SaveResource(r.Context(), res); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResourceDTO(res))
}

// GetResource returns one resource profile.
// GET /api/resources/{id}
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id := generic.ResourceID(chi.URLParam(r, "id"))
	res, err := h.Store.GetResource(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res == nil {
		h.fail(w, r, &generic.NotFoundError{Kind: "resource", ID: string(id)})
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

// =============================================================================
// RELEASE HANDLERS
// =============================================================================

// GetReleaseAllocations returns a release's phase allocations.
// GET /api/releases/{id}/allocations
func (h *Handler) GetReleaseAllocations(w http.ResponseWriter, r *http.Request) {
	releaseID := generic.ReleaseID(chi.URLParam(r, "id"))
	allocs, err := h.Store.ListAllocations(r.Context(), generic.AllocationFilter{ReleaseID: &releaseID})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.AllocationFactory.ToJSON(releaseID, allocs))
}

// ReplaceReleaseAllocations swaps a release's allocations for the assignment
// output in the body. A release_id in the body must match the path.
// PUT /api/releases/{id}/allocations
func (h *Handler) ReplaceReleaseAllocations(w http.ResponseWriter, r *http.Request) {
	releaseID := generic.ReleaseID(chi.URLParam(r, "id"))

	var rj factory.ReleaseAllocationsJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if rj.ReleaseID != "" && generic.ReleaseID(rj.ReleaseID) != releaseID {
		h.fail(w, r, &generic.ValidationError{
			Field:   "release_id",
			Message: fmt.Sprintf("%q does not match path release %q", rj.ReleaseID, releaseID),
		})
		return
	}

	allocs, err := h.AllocationFactory.FromJSON(releaseID, rj.Allocations)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Store.ReplaceReleaseAllocations(r.Context(), releaseID, allocs); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Logger.Info("release allocations replaced", "release_id", releaseID, "count", len(allocs))
	writeJSON(w, http.StatusOK, h.AllocationFactory.ToJSON(releaseID, allocs))
}

// =============================================================================
// HELPERS
// =============================================================================

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

// fail maps an engine error to its status code.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
