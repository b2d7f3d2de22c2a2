package render_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

func TestWorkItems_Table(t *testing.T) {
	items := staleItems(2)
	items[1].AssignedTo = nil
	items[1].Priority = intPtr(2)

	var buf bytes.Buffer
	require.NoError(t, render.WorkItems(&buf, items, render.Options{Now: now, NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "100")
	assert.Contains(t, out, "Stale task 1")
	assert.Contains(t, out, "P2")
	assert.Contains(t, out, "2 weeks ago")
}

func TestWorkItems_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.WorkItems(&buf, nil, render.Options{Format: render.FormatJSON}))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWorkItem_Detail(t *testing.T) {
	item := staleItems(1)[0]
	item.Tags = []string{"api", "urgent"}
	item.AreaPath = `Platform\Core`

	var buf bytes.Buffer
	require.NoError(t, render.WorkItem(&buf, item, render.Options{Now: now, NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "Task 100: Stale task 0")
	assert.Contains(t, out, "api, urgent")
	assert.Contains(t, out, `Platform\Core`)
	assert.Contains(t, out, "Alice")
}

func TestPullRequests_Table(t *testing.T) {
	prs := []model.PullRequest{{
		ID:           42,
		Repository:   "api",
		Title:        "Add retries",
		Author:       model.Identity{DisplayName: "Bob"},
		Status:       model.PRStatusActive,
		IsDraft:      true,
		SourceBranch: "feature/retries",
		TargetBranch: "main",
		Reviewers:    []model.Reviewer{{DisplayName: "Alice", Vote: 10}, {DisplayName: "Carol", Vote: 0}},
		CreatedAt:    now.AddDate(0, 0, -3),
	}}

	var buf bytes.Buffer
	require.NoError(t, render.PullRequests(&buf, prs, render.Options{Now: now, NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "[draft] Add retries")
	assert.Contains(t, out, "feature/retries -> main")
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "3d")
}

func TestHistory(t *testing.T) {
	snaps := []model.HealthSnapshot{
		{ID: 2, TeamName: "platform", GeneratedAt: now.Add(-time.Hour), HealthScore: 80, AlertCount: 1},
		{ID: 1, TeamName: "platform", GeneratedAt: now.Add(-2 * time.Hour), HealthScore: 75, Report: []byte(`{}`)},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.History(&buf, "platform", snaps, render.Options{Now: now, NoColor: true}))
		assert.Contains(t, buf.String(), "+5")
		assert.Contains(t, buf.String(), "1 hour ago")
	})

	t.Run("json omits report body", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.History(&buf, "platform", snaps, render.Options{Format: render.FormatJSON}))

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		require.Len(t, decoded, 2)
		assert.EqualValues(t, 80, decoded[0]["healthScore"])
		assert.NotContains(t, decoded[1], "report")
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, render.History(&buf, "platform", nil, render.Options{Now: now}))
		assert.Contains(t, buf.String(), "No health snapshots recorded for platform yet.")
	})
}

func TestTeams(t *testing.T) {
	teams := []application.TeamStatus{
		{Name: "platform", Latest: &model.HealthSnapshot{HealthScore: 91, GeneratedAt: now.Add(-time.Hour)}},
		{Name: "web"},
	}

	var buf bytes.Buffer
	require.NoError(t, render.Teams(&buf, teams, render.Options{Now: now, NoColor: true}))
	out := buf.String()
	assert.Contains(t, out, "platform")
	assert.Contains(t, out, "91")
	assert.Contains(t, out, "never")

	buf.Reset()
	require.NoError(t, render.Teams(&buf, teams, render.Options{Format: render.FormatJSON}))
	assert.JSONEq(t, `[{"name":"platform","healthScore":91,"lastRun":"2026-03-10T11:00:00Z"},{"name":"web"}]`, buf.String())
}

func TestTeam_Detail(t *testing.T) {
	stale := 21
	detail := render.TeamDetail{
		Team: model.TeamConfig{Name: "platform", Members: []model.TeamMember{
			{Name: "Alice", Email: "alice@example.com", Aliases: []string{"ali", "alice@corp.example"}},
		}},
		Effective:  model.DefaultHealthThresholds(),
		Overrides:  model.ThresholdOverrides{StaleDays: &stale},
		Categories: model.DefaultStateCategories(),
	}
	detail.Effective.StaleDays = stale

	var buf bytes.Buffer
	require.NoError(t, render.Team(&buf, detail, render.Options{NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "Team platform")
	assert.Contains(t, out, "ali, alice@corp.example")
	assert.Contains(t, out, "21 *")
	assert.Contains(t, out, "On Hold")

	buf.Reset()
	require.NoError(t, render.Team(&buf, detail, render.Options{Format: render.FormatJSON}))
	var decoded render.TeamDetail
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, detail, decoded)
}
