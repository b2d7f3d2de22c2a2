package render_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/google/go-cmp/cmp"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/adapter/driving/render"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func staleItems(n int) []model.WorkItem {
	items := make([]model.WorkItem, 0, n)
	for i := range n {
		items = append(items, model.WorkItem{
			ID:         100 + i,
			Title:      fmt.Sprintf("Stale task %d", i),
			Type:       "Task",
			State:      "Active",
			AssignedTo: &model.Identity{DisplayName: "Alice", UniqueName: "alice@example.com"},
			ChangedAt:  now.AddDate(0, 0, -20),
			CreatedAt:  now.AddDate(0, 0, -40),
		})
	}
	return items
}

func sampleReport() model.TeamHealthReport {
	alice := model.TeamMember{Name: "Alice", Email: "alice@example.com"}
	bob := model.TeamMember{Name: "Bob", Email: "bob@example.com"}
	unassigned := model.WorkItem{
		ID: 7, Title: "Triage crash", Type: "Bug", State: "New",
		Priority: intPtr(1), ChangedAt: now.AddDate(0, 0, -2), CreatedAt: now.AddDate(0, 0, -2),
	}
	return model.TeamHealthReport{
		GeneratedAt: now,
		Team:        model.TeamConfig{Name: "platform", Members: []model.TeamMember{alice, bob}},
		Summary:     model.HealthSummary{TeamSize: 2, ActiveItems: 9, HealthScore: 62},
		Alerts: []model.HealthAlert{
			{Severity: model.SeverityInfo, Category: model.CategoryWorkload, Message: "Bob has only 0 items", Member: &bob},
			{Severity: model.SeverityWarning, Category: model.CategoryStale, Message: "8 items not updated in over 14 days", WorkItems: staleItems(8)},
			{Severity: model.SeverityAlert, Category: model.CategoryUnassigned, Message: "1 active item has no owner", WorkItems: []model.WorkItem{unassigned}},
		},
		Workload: []model.MemberWorkload{
			{Member: alice, Active: 8, Total: 8, Items: staleItems(8), Status: model.WorkloadOK},
			{Member: bob, Status: model.WorkloadWarning, Items: []model.WorkItem{}},
		},
		Unassigned: []model.WorkItem{unassigned},
		Activity: model.ActivitySummary{
			Last24Hours: model.ActivityWindow{Updated: 1},
			Last7Days:   model.ActivityWindow{Updated: 3, Created: 1, Closed: 2},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want render.Format
	}{
		{"", render.FormatTable},
		{"TABLE", render.FormatTable},
		{"json", render.FormatJSON},
		{"md", render.FormatMarkdown},
		{"markdown", render.FormatMarkdown},
		{"html", render.FormatHTML},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := render.ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := render.ParseFormat("yaml")
	require.Error(t, err)
}

func TestRender_JSONIsLossless(t *testing.T) {
	report := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, report, render.Options{Format: render.FormatJSON, Now: now}))

	var decoded model.TeamHealthReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	if diff := cmp.Diff(report, decoded); diff != "" {
		t.Errorf("report mismatch after JSON round trip (-want +got):\n%s", diff)
	}
	assert.Len(t, decoded.Alerts[1].WorkItems, 8)
}

func TestRender_TableTruncatesWithoutMutating(t *testing.T) {
	report := sampleReport()
	before := sampleReport()

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, report, render.Options{Now: now, NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "Team health: platform")
	assert.Contains(t, out, "62/100")
	assert.Contains(t, out, "...and 3 more")
	assert.Contains(t, out, "#100 Stale task 0 (20d, Alice)")
	assert.NotContains(t, out, "Stale task 5")
	assert.NotContains(t, out, "\x1b[")

	if diff := cmp.Diff(before, report); diff != "" {
		t.Errorf("render modified the report (-before +after):\n%s", diff)
	}
}

func TestRender_SeverityOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, sampleReport(), render.Options{Now: now, NoColor: true, Limit: -1}))
	out := buf.String()

	alertAt := strings.Index(out, "1 active item has no owner")
	warningAt := strings.Index(out, "8 items not updated")
	infoAt := strings.Index(out, "Bob has only 0 items")
	require.True(t, alertAt >= 0 && warningAt >= 0 && infoAt >= 0)
	assert.Less(t, alertAt, warningAt)
	assert.Less(t, warningAt, infoAt)
	assert.NotContains(t, out, "more")
	assert.Contains(t, out, "Stale task 7")
}

func TestRender_CustomLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, sampleReport(), render.Options{Now: now, NoColor: true, Limit: 2}))
	assert.Contains(t, buf.String(), "...and 6 more")
}

func TestRender_ColorsWhenEnabled(t *testing.T) {
	// Color support is detected from the environment (TERM, NO_COLOR).
	text.EnableColors()

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, sampleReport(), render.Options{Now: now}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, sampleReport(), render.Options{Format: render.FormatMarkdown, Now: now}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Team health: platform"))
	assert.Contains(t, out, "## Alerts (3)")
	assert.Contains(t, out, "| Severity")
	assert.Contains(t, out, "<br/>")
	assert.Contains(t, out, "**Score:**")
	assert.NotContains(t, out, "\x1b[")
}

func TestRender_HTMLIsSanitized(t *testing.T) {
	report := sampleReport()
	report.Unassigned[0].Title = `<script>alert("x")</script>Crash`

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, report, render.Options{Format: render.FormatHTML, Now: now}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, "<title>Team health: platform</title>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2")
	assert.NotContains(t, out, "<script>")
	assert.True(t, strings.HasSuffix(out, "</main></body></html>"))
}

func TestRender_HTMLFooter(t *testing.T) {
	footer := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<form id="refresh"></form>`)
		return err
	})

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, sampleReport(), render.Options{Format: render.FormatHTML, Now: now, Footer: footer}))
	out := buf.String()

	assert.Contains(t, out, `<form id="refresh"></form></main>`)
	assert.Less(t, strings.Index(out, "<h2"), strings.Index(out, `<form id="refresh">`))
}

func TestRender_EmptyReport(t *testing.T) {
	report := model.TeamHealthReport{
		GeneratedAt: now,
		Team:        model.TeamConfig{Name: "empty"},
		Summary:     model.HealthSummary{HealthScore: 100},
	}

	var buf bytes.Buffer
	require.NoError(t, render.Render(&buf, report, render.Options{Now: now, NoColor: true}))
	out := buf.String()

	assert.Contains(t, out, "No alerts.")
	assert.Contains(t, out, "No members.")
	assert.Contains(t, out, "Every item has an owner.")
}
