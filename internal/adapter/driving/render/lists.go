package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ericfisherdev/adoctl/internal/application"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// WorkItems writes a work item listing.
func WorkItems(w io.Writer, items []model.WorkItem, opts Options) error {
	if items == nil {
		items = []model.WorkItem{}
	}
	return emit(w, opts, "Work items", items, func(d *doc) {
		if len(items) == 0 {
			d.line("No work items found.")
			return
		}
		now := opts.now()
		t := d.newTable("ID", "Type", "State", "Title", "Assigned To", "Priority", "Updated")
		for _, item := range items {
			t.AppendRow(table.Row{
				item.ID,
				item.Type,
				item.State,
				item.Title,
				orDash(item.AssigneeName()),
				priorityLabel(item.Priority),
				humanize.RelTime(item.ChangedAt, now, "ago", "from now"),
			})
		}
		if d.mode == modeText {
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 60}})
		}
		d.table(t)
	})
}

// WorkItem writes the details of a single work item.
func WorkItem(w io.Writer, item model.WorkItem, opts Options) error {
	title := fmt.Sprintf("%s %d: %s", item.Type, item.ID, item.Title)
	return emit(w, opts, title, item, func(d *doc) {
		now := opts.now()
		d.title(title)

		t := d.newTable("Field", "Value")
		t.AppendRow(table.Row{"State", item.State})
		t.AppendRow(table.Row{"Assigned To", orDash(item.AssigneeName())})
		t.AppendRow(table.Row{"Priority", priorityLabel(item.Priority)})
		if item.AreaPath != "" {
			t.AppendRow(table.Row{"Area", item.AreaPath})
		}
		if item.IterationPath != "" {
			t.AppendRow(table.Row{"Iteration", item.IterationPath})
		}
		if len(item.Tags) > 0 {
			t.AppendRow(table.Row{"Tags", strings.Join(item.Tags, ", ")})
		}
		t.AppendRow(table.Row{"Created", humanize.RelTime(item.CreatedAt, now, "ago", "from now")})
		t.AppendRow(table.Row{"Updated", humanize.RelTime(item.ChangedAt, now, "ago", "from now")})
		if item.URL != "" {
			t.AppendRow(table.Row{"URL", item.URL})
		}
		d.table(t)
	})
}

// PullRequests writes a pull request listing.
func PullRequests(w io.Writer, prs []model.PullRequest, opts Options) error {
	if prs == nil {
		prs = []model.PullRequest{}
	}
	return emit(w, opts, "Pull requests", prs, func(d *doc) {
		if len(prs) == 0 {
			d.line("No pull requests found.")
			return
		}
		now := opts.now()
		t := d.newTable("ID", "Repository", "Title", "Author", "Branch", "Approvals", "Age")
		for _, pr := range prs {
			title := pr.Title
			if pr.IsDraft {
				title = "[draft] " + title
			}
			t.AppendRow(table.Row{
				pr.ID,
				pr.Repository,
				title,
				pr.Author.DisplayName,
				pr.SourceBranch + " -> " + pr.TargetBranch,
				fmt.Sprintf("%d/%d", pr.ApprovalCount(), len(pr.Reviewers)),
				fmt.Sprintf("%dd", pr.DaysSinceOpened(now)),
			})
		}
		if d.mode == modeText {
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 3, WidthMax: 50},
				{Number: 6, Align: text.AlignRight},
			})
		}
		d.table(t)
	})
}

// historyEntry is the JSON form of a stored snapshot; the stored report body
// is omitted.
type historyEntry struct {
	ID           int64  `json:"id"`
	Team         string `json:"team"`
	GeneratedAt  string `json:"generatedAt"`
	HealthScore  int    `json:"healthScore"`
	ActiveItems  int    `json:"activeItems"`
	AlertCount   int    `json:"alertCount"`
	WarningCount int    `json:"warningCount"`
	InfoCount    int    `json:"infoCount"`
}

// History writes stored health snapshots, newest first as given.
func History(w io.Writer, team string, snaps []model.HealthSnapshot, opts Options) error {
	entries := make([]historyEntry, 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, historyEntry{
			ID:           s.ID,
			Team:         s.TeamName,
			GeneratedAt:  s.GeneratedAt.UTC().Format(time.RFC3339),
			HealthScore:  s.HealthScore,
			ActiveItems:  s.ActiveItems,
			AlertCount:   s.AlertCount,
			WarningCount: s.WarningCount,
			InfoCount:    s.InfoCount,
		})
	}

	title := fmt.Sprintf("Health history: %s", team)
	return emit(w, opts, title, entries, func(d *doc) {
		if len(snaps) == 0 {
			d.line(fmt.Sprintf("No health snapshots recorded for %s yet.", team))
			return
		}
		now := opts.now()
		t := d.newTable("When", "Score", "Trend", "Active", "Alerts", "Warnings", "Info")
		for i, s := range snaps {
			trend := ""
			if i+1 < len(snaps) {
				trend = trendLabel(s.HealthScore - snaps[i+1].HealthScore)
			}
			t.AppendRow(table.Row{
				humanize.RelTime(s.GeneratedAt, now, "ago", "from now"),
				d.paint(fmt.Sprintf("%d", s.HealthScore), scoreColor(s.HealthScore)...),
				trend,
				s.ActiveItems,
				s.AlertCount,
				s.WarningCount,
				s.InfoCount,
			})
		}
		d.table(t)
	})
}

// teamEntry is the JSON form of a team listing row.
type teamEntry struct {
	Name        string `json:"name"`
	HealthScore *int   `json:"healthScore,omitempty"`
	LastRun     string `json:"lastRun,omitempty"`
}

// Teams writes stored teams with their latest recorded score.
func Teams(w io.Writer, teams []application.TeamStatus, opts Options) error {
	entries := make([]teamEntry, 0, len(teams))
	for _, ts := range teams {
		e := teamEntry{Name: ts.Name}
		if ts.Latest != nil {
			score := ts.Latest.HealthScore
			e.HealthScore = &score
			e.LastRun = ts.Latest.GeneratedAt.UTC().Format(time.RFC3339)
		}
		entries = append(entries, e)
	}

	return emit(w, opts, "Teams", entries, func(d *doc) {
		if len(teams) == 0 {
			d.line("No teams configured. Create one with `adoctl team init <name>`.")
			return
		}
		now := opts.now()
		t := d.newTable("Team", "Last Score", "Last Run")
		for _, ts := range teams {
			if ts.Latest == nil {
				t.AppendRow(table.Row{ts.Name, "-", "never"})
				continue
			}
			t.AppendRow(table.Row{
				ts.Name,
				d.paint(fmt.Sprintf("%d", ts.Latest.HealthScore), scoreColor(ts.Latest.HealthScore)...),
				humanize.RelTime(ts.Latest.GeneratedAt, now, "ago", "from now"),
			})
		}
		d.table(t)
	})
}

func trendLabel(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "="
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// TeamDetail is the stored configuration of one team.
type TeamDetail struct {
	Team       model.TeamConfig         `json:"team"`
	Effective  model.HealthThresholds   `json:"effectiveThresholds"`
	Overrides  model.ThresholdOverrides `json:"overrides"`
	Categories model.StateCategories    `json:"states"`
}

// Team writes a team's roster, thresholds and state categories. Thresholds
// overridden for the team are marked with an asterisk.
func Team(w io.Writer, detail TeamDetail, opts Options) error {
	title := fmt.Sprintf("Team %s", detail.Team.Name)
	return emit(w, opts, title, detail, func(d *doc) {
		d.title(title)

		d.heading(fmt.Sprintf("Members (%d)", len(detail.Team.Members)))
		if len(detail.Team.Members) == 0 {
			d.para("No members. Add one with `adoctl team add-member`.")
		} else {
			t := d.newTable("Name", "Email", "Aliases")
			for _, m := range detail.Team.Members {
				t.AppendRow(table.Row{m.Name, m.Email, strings.Join(m.Aliases, ", ")})
			}
			d.table(t)
		}

		d.heading("Thresholds")
		t := d.newTable("Setting", "Value")
		o := detail.Overrides
		e := detail.Effective
		t.AppendRow(table.Row{"Stale days", overridden(e.StaleDays, o.StaleDays)})
		t.AppendRow(table.Row{"Stuck in state days", overridden(e.StuckInStateDays, o.StuckInStateDays)})
		t.AppendRow(table.Row{"Max items per person", overridden(e.MaxItemsPerPerson, o.MaxItemsPerPerson)})
		t.AppendRow(table.Row{"Min items per person", overridden(e.MinItemsPerPerson, o.MinItemsPerPerson)})
		t.AppendRow(table.Row{"High priority days", overridden(e.HighPriorityDays, o.HighPriorityDays)})
		d.table(t)

		d.heading("States")
		s := d.newTable("Category", "States")
		s.AppendRow(table.Row{"Active", strings.Join(detail.Categories.Active, ", ")})
		s.AppendRow(table.Row{"Blocked", strings.Join(detail.Categories.Blocked, ", ")})
		s.AppendRow(table.Row{"Completed", strings.Join(detail.Categories.Completed, ", ")})
		d.table(s)
	})
}

func overridden(value int, override *int) string {
	if override != nil {
		return fmt.Sprintf("%d *", value)
	}
	return fmt.Sprintf("%d", value)
}
