package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

var severityOrder = []model.Severity{model.SeverityAlert, model.SeverityWarning, model.SeverityInfo}

// Render writes a team health report. JSON output is the full report; the
// other formats list at most opts.Limit items per alert and section.
func Render(w io.Writer, report model.TeamHealthReport, opts Options) error {
	title := fmt.Sprintf("Team health: %s", report.Team.Name)
	return emit(w, opts, title, report, func(d *doc) {
		writeReport(d, report, opts)
	})
}

func writeReport(d *doc, report model.TeamHealthReport, opts Options) {
	now := opts.now()
	limit := opts.limit()

	d.title(fmt.Sprintf("Team health: %s", report.Team.Name))
	d.para(fmt.Sprintf("%s %s   Members: %d   Active items: %d   Generated %s",
		d.strong("Score:"),
		d.paint(fmt.Sprintf("%d/100", report.Summary.HealthScore), scoreColor(report.Summary.HealthScore)...),
		report.Summary.TeamSize,
		report.Summary.ActiveItems,
		humanize.RelTime(report.GeneratedAt, now, "ago", "from now"),
	))

	writeAlerts(d, report.Alerts, limit, now)
	writeWorkload(d, report.Workload)
	writeUnassigned(d, report.Unassigned, limit, now)
	writeActivity(d, report.Activity)
}

func writeAlerts(d *doc, alerts []model.HealthAlert, limit int, now time.Time) {
	d.heading(fmt.Sprintf("Alerts (%d)", len(alerts)))
	if len(alerts) == 0 {
		d.para("No alerts.")
		return
	}

	t := d.newTable("Severity", "Category", "Message", "Items")
	for _, sev := range severityOrder {
		for _, a := range alerts {
			if a.Severity != sev {
				continue
			}
			t.AppendRow(table.Row{
				d.paint(string(a.Severity), severityColor(a.Severity)...),
				string(a.Category),
				a.Message,
				itemLines(a.WorkItems, limit, now),
			})
		}
	}
	if d.mode == modeText {
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 3, WidthMax: 60},
			{Number: 4, WidthMax: 70},
		})
	}
	d.table(t)
}

func writeWorkload(d *doc, workload []model.MemberWorkload) {
	d.heading("Workload")
	if len(workload) == 0 {
		d.para("No members.")
		return
	}

	t := d.newTable("Member", "Active", "Blocked", "Total", "Status")
	for _, mw := range workload {
		t.AppendRow(table.Row{
			memberLabel(mw.Member),
			mw.Active,
			mw.Blocked,
			mw.Total,
			d.paint(string(mw.Status), workloadColor(mw.Status)...),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	d.table(t)
}

func writeUnassigned(d *doc, items []model.WorkItem, limit int, now time.Time) {
	d.heading(fmt.Sprintf("Unassigned (%d)", len(items)))
	if len(items) == 0 {
		d.para("Every item has an owner.")
		return
	}

	shown, more := truncate(items, limit)
	t := d.newTable("ID", "Title", "Type", "State", "Priority", "Age")
	for _, item := range shown {
		t.AppendRow(table.Row{
			item.ID,
			item.Title,
			item.Type,
			item.State,
			priorityLabel(item.Priority),
			ageLabel(item, now),
		})
	}
	if more > 0 {
		t.AppendFooter(table.Row{"", moreLine(more)})
	}
	if d.mode == modeText {
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 60}})
	}
	d.table(t)
}

func writeActivity(d *doc, a model.ActivitySummary) {
	d.heading("Activity")
	t := d.newTable("Window", "Updated", "Created", "Closed")
	t.AppendRow(table.Row{"Last 24 hours", a.Last24Hours.Updated, a.Last24Hours.Created, a.Last24Hours.Closed})
	t.AppendRow(table.Row{"Last 7 days", a.Last7Days.Updated, a.Last7Days.Created, a.Last7Days.Closed})
	d.table(t)
}

// itemLines formats one line per work item, truncated to limit.
func itemLines(items []model.WorkItem, limit int, now time.Time) string {
	if len(items) == 0 {
		return ""
	}
	shown, more := truncate(items, limit)
	lines := make([]string, 0, len(shown)+1)
	for _, item := range shown {
		line := fmt.Sprintf("#%d %s (%s", item.ID, item.Title, ageLabel(item, now))
		if name := item.AssigneeName(); name != "" {
			line += ", " + name
		}
		lines = append(lines, line+")")
	}
	if more > 0 {
		lines = append(lines, moreLine(more))
	}
	return strings.Join(lines, "\n")
}

func ageLabel(item model.WorkItem, now time.Time) string {
	return fmt.Sprintf("%dd", item.DaysSinceUpdate(now))
}

func priorityLabel(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("P%d", *p)
}

func memberLabel(m model.TeamMember) string {
	if m.Name == "" {
		return m.Email
	}
	return m.Name
}

func scoreColor(score int) []text.Color {
	switch {
	case score >= 80:
		return []text.Color{text.FgGreen, text.Bold}
	case score >= 50:
		return []text.Color{text.FgYellow, text.Bold}
	default:
		return []text.Color{text.FgRed, text.Bold}
	}
}

func severityColor(s model.Severity) []text.Color {
	switch s {
	case model.SeverityAlert:
		return []text.Color{text.FgRed, text.Bold}
	case model.SeverityWarning:
		return []text.Color{text.FgYellow}
	default:
		return []text.Color{text.FgCyan}
	}
}

func workloadColor(s model.WorkloadStatus) []text.Color {
	switch s {
	case model.WorkloadAlert:
		return []text.Color{text.FgRed}
	case model.WorkloadWarning:
		return []text.Color{text.FgYellow}
	default:
		return []text.Color{text.FgGreen}
	}
}
