// Package httphandler serves the read-only team health REST API used by
// `adoctl serve`.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// refreshTimeout bounds an asynchronous refresh started by the API.
const refreshTimeout = 2 * time.Minute

// defaultHistoryLimit applies when the history endpoint gets no limit.
const defaultHistoryLimit = 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	health  *application.HealthService
	pollSvc *application.PollService
	logger  *slog.Logger
}

// NewHandler creates a Handler. pollSvc may be nil, in which case refresh
// requests are rejected and no schedules are reported.
func NewHandler(health *application.HealthService, pollSvc *application.PollService, logger *slog.Logger) *Handler {
	return &Handler{
		health:  health,
		pollSvc: pollSvc,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with the API routes registered and
// wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// RegisterAPIRoutes registers the REST API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/teams", h.ListTeams)
	mux.HandleFunc("GET /api/v1/teams/{team}/health", h.TeamHealth)
	mux.HandleFunc("GET /api/v1/teams/{team}/history", h.TeamHistory)
	mux.HandleFunc("POST /api/v1/teams/{team}/refresh", h.RefreshTeam)
}

// ApplyMiddleware wraps next with recovery and request logging.
func ApplyMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	return loggingMiddleware(logger, wrapped)
}

// ListTeams returns every configured team with its latest recorded score and
// its polling schedule.
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.health.Teams(r.Context())
	if err != nil {
		h.logger.Error("failed to list teams", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var schedules map[string]application.ScheduleInfo
	if h.pollSvc != nil {
		schedules = h.pollSvc.Schedules()
	}

	resp := make([]TeamResponse, 0, len(statuses))
	for _, ts := range statuses {
		tr := toTeamResponse(ts)
		if sched, ok := schedules[ts.Name]; ok {
			tr.Schedule = toScheduleResponse(sched)
		}
		resp = append(resp, tr)
	}

	writeJSON(w, http.StatusOK, resp)
}

// TeamHealth runs a fresh analysis and returns the full report. Threshold
// query parameters (stale_days, stuck_days, max_items, min_items,
// high_priority_days) override stored values; include_completed=true fetches
// completed items as well.
func (h *Handler) TeamHealth(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")

	overrides, err := parseOverrides(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.health.Analyze(r.Context(), application.HealthRequest{
		Team:             team,
		Overrides:        overrides,
		IncludeCompleted: r.URL.Query().Get("include_completed") == "true",
	})
	if err != nil {
		h.writeServiceError(w, team, "failed to analyze team", err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// TeamHistory returns stored snapshots, newest first. The limit query
// parameter defaults to 20; 0 returns everything.
func (h *Handler) TeamHistory(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	snaps, err := h.health.History(r.Context(), team, limit)
	if err != nil {
		h.writeServiceError(w, team, "failed to list history", err)
		return
	}

	resp := make([]SnapshotResponse, 0, len(snaps))
	for _, s := range snaps {
		resp = append(resp, toSnapshotResponse(s))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RefreshTeam queues an immediate analysis of the team and returns 202.
func (h *Handler) RefreshTeam(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")

	if h.pollSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "poller is not running")
		return
	}

	if _, err := h.health.Team(r.Context(), team); err != nil {
		h.writeServiceError(w, team, "failed to load team", err)
		return
	}

	// The request context ends with the response, so the refresh gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := h.pollSvc.RefreshTeam(ctx, team); err != nil {
			h.logger.Error("async team refresh failed", "team", team, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, RefreshResponse{Team: team, Status: "queued"})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps application errors to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, team, msg string, err error) {
	switch {
	case errors.Is(err, driven.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, "team not found")
	case errors.Is(err, application.ErrNoWorkItemSource):
		writeError(w, http.StatusServiceUnavailable, "no work item source configured")
	default:
		h.logger.Error(msg, "team", team, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseOverrides reads optional non-negative threshold overrides from the
// query string.
func parseOverrides(r *http.Request) (model.ThresholdOverrides, error) {
	var o model.ThresholdOverrides
	fields := []struct {
		name string
		dst  **int
	}{
		{"stale_days", &o.StaleDays},
		{"stuck_days", &o.StuckInStateDays},
		{"max_items", &o.MaxItemsPerPerson},
		{"min_items", &o.MinItemsPerPerson},
		{"high_priority_days", &o.HighPriorityDays},
	}

	q := r.URL.Query()
	for _, f := range fields {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return o, errors.New("invalid " + f.name + ": expected a non-negative integer")
		}
		*f.dst = &n
	}
	return o, nil
}
