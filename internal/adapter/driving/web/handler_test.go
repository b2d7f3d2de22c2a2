package web_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliteadapter "github.com/ericfisherdev/adoctl/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/adoctl/internal/adapter/driving/web"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

type stubSource struct {
	items []model.WorkItem
}

func (s *stubSource) FetchTeamWorkItems(_ context.Context, _ driven.WorkItemQuery) ([]model.WorkItem, error) {
	return s.items, nil
}

func (s *stubSource) GetWorkItem(_ context.Context, _ int) (*model.WorkItem, error) {
	return nil, driven.ErrWorkItemNotFound
}

func (s *stubSource) ListWorkItems(_ context.Context, _ driven.WorkItemFilter) ([]model.WorkItem, error) {
	return s.items, nil
}

type fixture struct {
	mux       *http.ServeMux
	snapshots *sqliteadapter.SnapshotRepo
}

func setupFixture(t *testing.T, source driven.WorkItemSource, withPoller bool) fixture {
	t.Helper()

	db, err := sqliteadapter.NewDB(filepath.Join(t.TempDir(), "adoctl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqliteadapter.RunMigrations(db.Writer))

	teams := sqliteadapter.NewTeamRepo(db)
	require.NoError(t, teams.Create(context.Background(), model.TeamConfig{
		Name:    "platform",
		Members: []model.TeamMember{{Name: "Alice", Email: "alice@example.com"}},
	}))

	snapshots := sqliteadapter.NewSnapshotRepo(db)
	health := application.NewHealthService(teams, sqliteadapter.NewThresholdRepo(db), source, snapshots, slog.Default(),
		application.WithClock(func() time.Time { return testTime }))

	var poller *application.PollService
	if withPoller {
		poller = application.NewPollService(health, time.Hour, slog.Default())
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		go poller.Start(ctx)
	}

	mux := http.NewServeMux()
	web.RegisterRoutes(mux, web.NewHandler(health, poller, slog.Default()))
	return fixture{mux: mux, snapshots: snapshots}
}

func staleSource() *stubSource {
	return &stubSource{items: []model.WorkItem{{
		ID:         1,
		Title:      `Old task<script>alert(1)</script>`,
		Type:       "Task",
		State:      "Active",
		AssignedTo: &model.Identity{DisplayName: "Alice", UniqueName: "alice@example.com"},
		ChangedAt:  testTime.AddDate(0, 0, -20),
		CreatedAt:  testTime.AddDate(0, 0, -30),
	}}}
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	f := setupFixture(t, staleSource(), false)

	rec := get(t, f.mux, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, `<a href="/teams/platform">platform</a>`)
	assert.Contains(t, body, "never")
}

func TestTeamReport_AnalyzesWhenNoHistory(t *testing.T) {
	f := setupFixture(t, staleSource(), false)

	rec := get(t, f.mux, "/teams/platform")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Team health: platform</title>")
	assert.NotContains(t, body, "<script>")
	assert.NotContains(t, body, "Refresh now", "no refresh without a poller")
	assert.Contains(t, body, `<a href="/">All teams</a>`)

	snaps, err := f.snapshots.ListByTeam(context.Background(), "platform", 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)

	// The second view reuses the stored report.
	require.Equal(t, http.StatusOK, get(t, f.mux, "/teams/platform").Code)
	snaps, err = f.snapshots.ListByTeam(context.Background(), "platform", 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestTeamReport_Errors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, get(t, setupFixture(t, staleSource(), false).mux, "/teams/ghost").Code)

	noSource := setupFixture(t, application.NewSourceProvider(application.Sources{}), false)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, noSource.mux, "/teams/platform").Code)
}

func TestRefresh(t *testing.T) {
	f := setupFixture(t, staleSource(), true)

	rec := get(t, f.mux, "/teams/platform")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Refresh now")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	token := cookies[0].Value

	post := func(formToken string) *httptest.ResponseRecorder {
		form := url.Values{"csrf_token": {formToken}}
		req := httptest.NewRequest(http.MethodPost, "/teams/platform/refresh", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		f.mux.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, post("wrong").Code)

	rec = post(token)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/teams/platform", rec.Header().Get("Location"))
}
