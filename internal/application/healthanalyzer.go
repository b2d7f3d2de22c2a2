package application

import (
	"fmt"
	"sort"
	"time"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// blockedAlertDays is the fixed age after which a blocked item escalates from
// warning to alert. It is deliberately not a threshold setting.
const blockedAlertDays = 7

// Score deductions per alert. Each deduction scales with the number of
// implicated items and is capped per alert.
const (
	maxHealthScore = 100

	alertPointsPerItem   = 5
	alertPointsCap       = 15
	warningPointsPerItem = 2
	warningPointsCap     = 10
	infoPointsPerItem    = 1
	infoPointsCap        = 5
)

// HealthAnalyzer classifies a work item snapshot against a team roster and
// reduces the findings to a TeamHealthReport. It performs no I/O and holds no
// mutable state, so one analyzer may be shared across goroutines.
type HealthAnalyzer struct {
	thresholds model.HealthThresholds
	categories model.StateCategories
	now        func() time.Time
}

// AnalyzerOption configures a HealthAnalyzer.
type AnalyzerOption func(*HealthAnalyzer)

// WithClock sets the time source used for recency calculations and the
// report's GeneratedAt. Defaults to time.Now.
func WithClock(now func() time.Time) AnalyzerOption {
	return func(a *HealthAnalyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewHealthAnalyzer creates a HealthAnalyzer with fixed thresholds and state
// categories.
func NewHealthAnalyzer(thresholds model.HealthThresholds, categories model.StateCategories, opts ...AnalyzerOption) *HealthAnalyzer {
	a := &HealthAnalyzer{
		thresholds: thresholds,
		categories: categories,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs every detection rule over items and builds the report. It never
// fails: states matching no category are simply left uncategorized.
func (a *HealthAnalyzer) Analyze(items []model.WorkItem, team model.TeamConfig) model.TeamHealthReport {
	now := a.now()

	alerts := []model.HealthAlert{}
	alerts = append(alerts, a.detectStale(items, now)...)
	alerts = append(alerts, a.detectBlocked(items, now)...)
	alerts = append(alerts, a.detectHighPriorityAtRisk(items, now)...)
	alerts = append(alerts, a.detectWorkloadImbalance(items, team)...)

	unassigned := a.unassignedItems(items)
	if len(unassigned) > 0 {
		alerts = append(alerts, model.HealthAlert{
			Severity:  model.SeverityAlert,
			Category:  model.CategoryUnassigned,
			Message:   fmt.Sprintf("%s without an assignee", countItems(len(unassigned))),
			WorkItems: unassigned,
		})
	}

	return model.TeamHealthReport{
		GeneratedAt: now,
		Team:        team,
		Summary: model.HealthSummary{
			TeamSize:    len(team.Members),
			ActiveItems: len(a.openItems(items)),
			HealthScore: ComputeHealthScore(alerts),
		},
		Alerts:     alerts,
		Workload:   a.workloadDistribution(items, team),
		Unassigned: unassigned,
		Activity:   a.activitySummary(items, now),
	}
}

// isCompleted is the single completion predicate shared by every rule.
func (a *HealthAnalyzer) isCompleted(item model.WorkItem) bool {
	return a.categories.IsCompleted(item.State)
}

func (a *HealthAnalyzer) openItems(items []model.WorkItem) []model.WorkItem {
	open := make([]model.WorkItem, 0, len(items))
	for _, item := range items {
		if !a.isCompleted(item) {
			open = append(open, item)
		}
	}
	return open
}

func (a *HealthAnalyzer) detectStale(items []model.WorkItem, now time.Time) []model.HealthAlert {
	var highPriority, regular []model.WorkItem
	for _, item := range a.openItems(items) {
		if item.DaysSinceUpdate(now) <= a.thresholds.StaleDays {
			continue
		}
		if item.IsHighPriority() {
			highPriority = append(highPriority, item)
		} else {
			regular = append(regular, item)
		}
	}

	var alerts []model.HealthAlert
	if len(highPriority) > 0 {
		alerts = append(alerts, model.HealthAlert{
			Severity:  model.SeverityAlert,
			Category:  model.CategoryStale,
			Message:   fmt.Sprintf("%d high-priority %s not updated in over %d days", len(highPriority), pluralItems(len(highPriority)), a.thresholds.StaleDays),
			WorkItems: highPriority,
		})
	}
	if len(regular) > 0 {
		alerts = append(alerts, model.HealthAlert{
			Severity:  model.SeverityWarning,
			Category:  model.CategoryStale,
			Message:   fmt.Sprintf("%s not updated in over %d days", countItems(len(regular)), a.thresholds.StaleDays),
			WorkItems: regular,
		})
	}
	return alerts
}

func (a *HealthAnalyzer) detectBlocked(items []model.WorkItem, now time.Time) []model.HealthAlert {
	var longBlocked, recentlyBlocked []model.WorkItem
	for _, item := range items {
		if !a.categories.IsBlocked(item.State) {
			continue
		}
		if item.DaysSinceUpdate(now) > blockedAlertDays {
			longBlocked = append(longBlocked, item)
		} else {
			recentlyBlocked = append(recentlyBlocked, item)
		}
	}

	var alerts []model.HealthAlert
	if len(longBlocked) > 0 {
		alerts = append(alerts, model.HealthAlert{
			Severity:  model.SeverityAlert,
			Category:  model.CategoryBlocked,
			Message:   fmt.Sprintf("%s blocked for more than %d days", countItems(len(longBlocked)), blockedAlertDays),
			WorkItems: longBlocked,
		})
	}
	if len(recentlyBlocked) > 0 {
		alerts = append(alerts, model.HealthAlert{
			Severity:  model.SeverityWarning,
			Category:  model.CategoryBlocked,
			Message:   fmt.Sprintf("%s currently blocked", countItems(len(recentlyBlocked))),
			WorkItems: recentlyBlocked,
		})
	}
	return alerts
}

func (a *HealthAnalyzer) detectHighPriorityAtRisk(items []model.WorkItem, now time.Time) []model.HealthAlert {
	var atRisk []model.WorkItem
	for _, item := range a.openItems(items) {
		if item.Priority == nil || *item.Priority > 2 {
			continue
		}
		if item.DaysSinceUpdate(now) > a.thresholds.HighPriorityDays {
			atRisk = append(atRisk, item)
		}
	}
	if len(atRisk) == 0 {
		return nil
	}
	return []model.HealthAlert{{
		Severity:  model.SeverityAlert,
		Category:  model.CategoryHighPriority,
		Message:   fmt.Sprintf("%d high-priority %s with no progress in over %d days", len(atRisk), pluralItems(len(atRisk)), a.thresholds.HighPriorityDays),
		WorkItems: atRisk,
	}}
}

func (a *HealthAnalyzer) detectWorkloadImbalance(items []model.WorkItem, team model.TeamConfig) []model.HealthAlert {
	open := a.openItems(items)

	var alerts []model.HealthAlert
	for _, member := range team.Members {
		count := len(itemsForMember(open, member))
		m := member

		switch {
		case count > a.thresholds.MaxItemsPerPerson:
			alerts = append(alerts, model.HealthAlert{
				Severity: model.SeverityWarning,
				Category: model.CategoryWorkload,
				Message:  fmt.Sprintf("%s has %s assigned (max %d)", member.Name, countItems(count), a.thresholds.MaxItemsPerPerson),
				Member:   &m,
			})
		case count < a.thresholds.MinItemsPerPerson:
			alerts = append(alerts, model.HealthAlert{
				Severity: model.SeverityInfo,
				Category: model.CategoryWorkload,
				Message:  fmt.Sprintf("%s has only %s assigned (min %d)", member.Name, countItems(count), a.thresholds.MinItemsPerPerson),
				Member:   &m,
			})
		}
	}
	return alerts
}

func (a *HealthAnalyzer) unassignedItems(items []model.WorkItem) []model.WorkItem {
	unassigned := []model.WorkItem{}
	for _, item := range items {
		if item.IsUnassigned() && !a.isCompleted(item) {
			unassigned = append(unassigned, item)
		}
	}
	return unassigned
}

func (a *HealthAnalyzer) workloadDistribution(items []model.WorkItem, team model.TeamConfig) []model.MemberWorkload {
	workloads := make([]model.MemberWorkload, 0, len(team.Members))
	for _, member := range team.Members {
		matched := itemsForMember(items, member)

		w := model.MemberWorkload{
			Member: member,
			Items:  matched,
			Status: model.WorkloadOK,
		}
		for _, item := range matched {
			if a.categories.IsActive(item.State) {
				w.Active++
			}
			if a.categories.IsBlocked(item.State) {
				w.Blocked++
			}
			if !a.isCompleted(item) {
				w.Total++
			}
		}

		switch {
		case w.Total > a.thresholds.MaxItemsPerPerson:
			w.Status = model.WorkloadAlert
		case w.Total < a.thresholds.MinItemsPerPerson:
			w.Status = model.WorkloadWarning
		}
		workloads = append(workloads, w)
	}

	sort.SliceStable(workloads, func(i, j int) bool {
		return workloads[i].Total > workloads[j].Total
	})
	return workloads
}

func (a *HealthAnalyzer) activitySummary(items []model.WorkItem, now time.Time) model.ActivitySummary {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	var summary model.ActivitySummary
	for _, item := range items {
		closed := a.isCompleted(item)
		countActivity(&summary.Last24Hours, item, closed, dayAgo)
		countActivity(&summary.Last7Days, item, closed, weekAgo)
	}
	return summary
}

func countActivity(w *model.ActivityWindow, item model.WorkItem, closed bool, since time.Time) {
	if item.ChangedAt.After(since) {
		w.Updated++
		if closed {
			w.Closed++
		}
	}
	if item.CreatedAt.After(since) {
		w.Created++
	}
}

// itemsForMember returns the items whose assignee matches member. It is the
// only attribution path, used by both workload rules.
func itemsForMember(items []model.WorkItem, member model.TeamMember) []model.WorkItem {
	matched := []model.WorkItem{}
	for _, item := range items {
		if member.Matches(item.AssignedTo) {
			matched = append(matched, item)
		}
	}
	return matched
}

// ComputeHealthScore deducts capped, severity-weighted points per alert from
// 100 and clamps the result to [0, 100]. It is a heuristic, not a calibrated
// metric; the caps are part of the contract.
func ComputeHealthScore(alerts []model.HealthAlert) int {
	score := maxHealthScore
	for _, alert := range alerts {
		n := alert.ItemCount()
		switch alert.Severity {
		case model.SeverityAlert:
			score -= min(alertPointsCap, n*alertPointsPerItem)
		case model.SeverityWarning:
			score -= min(warningPointsCap, n*warningPointsPerItem)
		case model.SeverityInfo:
			score -= min(infoPointsCap, n*infoPointsPerItem)
		}
	}
	return max(0, min(maxHealthScore, score))
}

func pluralItems(n int) string {
	if n == 1 {
		return "item"
	}
	return "items"
}

func countItems(n int) string {
	return fmt.Sprintf("%d %s", n, pluralItems(n))
}
