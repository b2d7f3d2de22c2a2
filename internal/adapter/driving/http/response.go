package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the liveness endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// TeamResponse is the JSON representation of a configured team.
type TeamResponse struct {
	Name        string            `json:"name"`
	HealthScore *int              `json:"health_score"`
	LastRun     string            `json:"last_run,omitempty"`
	Schedule    *ScheduleResponse `json:"schedule,omitempty"`
}

// ScheduleResponse is the poller's schedule for one team.
type ScheduleResponse struct {
	Tier       string `json:"tier"`
	NextPollAt string `json:"next_poll_at"`
	LastPolled string `json:"last_polled,omitempty"`
}

// SnapshotResponse is the JSON representation of a stored health snapshot.
type SnapshotResponse struct {
	ID           int64  `json:"id"`
	GeneratedAt  string `json:"generated_at"`
	HealthScore  int    `json:"health_score"`
	ActiveItems  int    `json:"active_items"`
	AlertCount   int    `json:"alert_count"`
	WarningCount int    `json:"warning_count"`
	InfoCount    int    `json:"info_count"`
}

// RefreshResponse acknowledges a queued refresh.
type RefreshResponse struct {
	Team   string `json:"team"`
	Status string `json:"status"`
}

func toTeamResponse(ts application.TeamStatus) TeamResponse {
	tr := TeamResponse{Name: ts.Name}
	if ts.Latest != nil {
		score := ts.Latest.HealthScore
		tr.HealthScore = &score
		tr.LastRun = ts.Latest.GeneratedAt.UTC().Format(time.RFC3339)
	}
	return tr
}

func toScheduleResponse(s application.ScheduleInfo) *ScheduleResponse {
	sr := &ScheduleResponse{
		Tier:       s.Tier.String(),
		NextPollAt: s.NextPollAt.UTC().Format(time.RFC3339),
	}
	if !s.LastPolled.IsZero() {
		sr.LastPolled = s.LastPolled.UTC().Format(time.RFC3339)
	}
	return sr
}

func toSnapshotResponse(s model.HealthSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:           s.ID,
		GeneratedAt:  s.GeneratedAt.UTC().Format(time.RFC3339),
		HealthScore:  s.HealthScore,
		ActiveItems:  s.ActiveItems,
		AlertCount:   s.AlertCount,
		WarningCount: s.WarningCount,
		InfoCount:    s.InfoCount,
	}
}
