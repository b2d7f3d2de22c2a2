package model

import "time"

// Severity ranks a health alert. Alert is the most urgent.
type Severity string

const (
	SeverityAlert   Severity = "alert"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Rank returns 0 for alert, 1 for warning and 2 for info. Unknown severities
// sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityAlert:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// AlertCategory identifies the rule that produced an alert.
type AlertCategory string

const (
	CategoryStale        AlertCategory = "stale"
	CategoryBlocked      AlertCategory = "blocked"
	CategoryWorkload     AlertCategory = "workload"
	CategoryUnassigned   AlertCategory = "unassigned"
	CategoryHighPriority AlertCategory = "high-priority"
)

// HealthAlert is a single finding of the health analyzer.
type HealthAlert struct {
	Severity  Severity      `json:"severity"`
	Category  AlertCategory `json:"category"`
	Message   string        `json:"message"`
	WorkItems []WorkItem    `json:"workItems,omitempty"`
	Member    *TeamMember   `json:"member,omitempty"`
}

// ItemCount returns the number of implicated work items, or 1 when the alert
// carries no item list.
func (a HealthAlert) ItemCount() int {
	if a.WorkItems == nil {
		return 1
	}
	return len(a.WorkItems)
}

// WorkloadStatus classifies a member's load against the thresholds.
type WorkloadStatus string

const (
	WorkloadOK      WorkloadStatus = "ok"
	WorkloadWarning WorkloadStatus = "warning"
	WorkloadAlert   WorkloadStatus = "alert"
)

// MemberWorkload is the per-member breakdown of assigned work.
type MemberWorkload struct {
	Member  TeamMember     `json:"member"`
	Active  int            `json:"active"`
	Blocked int            `json:"blocked"`
	Total   int            `json:"total"` // Non-completed items only.
	Items   []WorkItem     `json:"items"`
	Status  WorkloadStatus `json:"status"`
}

// ActivityWindow counts item activity inside one time window.
type ActivityWindow struct {
	Updated int `json:"updated"`
	Closed  int `json:"closed"`
	Created int `json:"created"`
}

// ActivitySummary counts recent activity across all analyzed items.
type ActivitySummary struct {
	Last24Hours ActivityWindow `json:"last24Hours"`
	Last7Days   ActivityWindow `json:"last7Days"`
}

// HealthSummary holds the headline numbers of a report.
type HealthSummary struct {
	TeamSize    int `json:"teamSize"`
	ActiveItems int `json:"activeItems"`
	HealthScore int `json:"healthScore"`
}

// TeamHealthReport is the immutable result of one analysis run.
type TeamHealthReport struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	Team        TeamConfig       `json:"team"`
	Summary     HealthSummary    `json:"summary"`
	Alerts      []HealthAlert    `json:"alerts"`
	Workload    []MemberWorkload `json:"workload"`
	Unassigned  []WorkItem       `json:"unassigned"`
	Activity    ActivitySummary  `json:"activity"`
}

// AlertsBySeverity returns the alerts with the given severity, in detection order.
func (r TeamHealthReport) AlertsBySeverity(s Severity) []HealthAlert {
	var out []HealthAlert
	for _, a := range r.Alerts {
		if a.Severity == s {
			out = append(out, a)
		}
	}
	return out
}

// HealthSnapshot is the stored summary of a past report.
type HealthSnapshot struct {
	ID           int64
	TeamName     string
	GeneratedAt  time.Time
	HealthScore  int
	ActiveItems  int
	AlertCount   int
	WarningCount int
	InfoCount    int
	Report       []byte // JSON encoding of the full report; may be empty.
}

// NewHealthSnapshot summarizes a report for storage.
func NewHealthSnapshot(r TeamHealthReport, encoded []byte) HealthSnapshot {
	snap := HealthSnapshot{
		TeamName:    r.Team.Name,
		GeneratedAt: r.GeneratedAt,
		HealthScore: r.Summary.HealthScore,
		ActiveItems: r.Summary.ActiveItems,
		Report:      encoded,
	}
	for _, a := range r.Alerts {
		switch a.Severity {
		case SeverityAlert:
			snap.AlertCount++
		case SeverityWarning:
			snap.WarningCount++
		case SeverityInfo:
			snap.InfoCount++
		}
	}
	return snap
}
