// Package web serves a read-only HTML dashboard of team health next to the
// REST API of `adoctl serve`.
package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// refreshTimeout bounds a refresh started from the dashboard.
const refreshTimeout = 2 * time.Minute

// Handler is the web driving adapter. Pages are rendered by the render
// package in HTML mode.
type Handler struct {
	health *application.HealthService
	poller *application.PollService
	logger *slog.Logger
}

// NewHandler creates a Handler. poller may be nil, which disables refresh.
func NewHandler(health *application.HealthService, poller *application.PollService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{health: health, poller: poller, logger: logger}
}

// Dashboard lists every team with its latest score.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.health.Teams(r.Context())
	if err != nil {
		h.logger.Error("failed to list teams", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, s.Name)
	}

	var buf bytes.Buffer
	opts := render.Options{Format: render.FormatHTML, Footer: teamNav(names)}
	if err := render.Teams(&buf, statuses, opts); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writePage(w, buf.Bytes())
}

// TeamReport shows the team's most recently recorded report. A team without
// history is analyzed on the spot.
func (h *Handler) TeamReport(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")
	ctx := r.Context()

	report, err := h.health.LatestReport(ctx, team)
	if err == nil && report == nil {
		report, err = h.health.Analyze(ctx, application.HealthRequest{Team: team})
	}
	if err != nil {
		h.writeError(w, team, err)
		return
	}

	var buf bytes.Buffer
	opts := render.Options{
		Format: render.FormatHTML,
		Limit:  -1,
		Footer: refreshForm(team, csrfToken(w, r), h.poller != nil),
	}
	if err := render.Render(&buf, *report, opts); err != nil {
		h.logger.Error("failed to render report", "team", team, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writePage(w, buf.Bytes())
}

// Refresh queues an analysis of the team and redirects back to its report.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")

	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}
	if h.poller == nil {
		http.Error(w, "poller is not running", http.StatusServiceUnavailable)
		return
	}
	if _, err := h.health.Team(r.Context(), team); err != nil {
		h.writeError(w, team, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := h.poller.RefreshTeam(ctx, team); err != nil {
			h.logger.Error("dashboard refresh failed", "team", team, "error", err)
		}
	}()

	http.Redirect(w, r, teamPath(team), http.StatusSeeOther)
}

func (h *Handler) writeError(w http.ResponseWriter, team string, err error) {
	switch {
	case errors.Is(err, driven.ErrTeamNotFound):
		http.Error(w, "team not found", http.StatusNotFound)
	case errors.Is(err, application.ErrNoWorkItemSource):
		http.Error(w, "no work item source configured", http.StatusServiceUnavailable)
	default:
		h.logger.Error("dashboard request failed", "team", team, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writePage(w http.ResponseWriter, page []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func teamPath(team string) string {
	return "/teams/" + url.PathEscape(team)
}
