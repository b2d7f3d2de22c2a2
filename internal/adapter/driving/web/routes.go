package web

import "net/http"

// RegisterRoutes registers the dashboard pages on mux. The REST API lives
// under /api/v1 and is registered separately.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("GET /teams/{team}", h.TeamReport)
	mux.HandleFunc("POST /teams/{team}/refresh", h.Refresh)
}
