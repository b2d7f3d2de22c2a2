package application

import (
	"time"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// ActivityTier classifies a team by how recently any of its work items
// changed. Busier teams are re-analyzed more often.
type ActivityTier int

const (
	TierHot    ActivityTier = iota // Changed within the hour.
	TierActive                     // Changed within the day.
	TierWarm                       // Changed within the week.
	TierStale                      // Nothing changed for a week, or no items.
)

// tierRule maps an activity window to a tier and its polling interval. Rules
// are checked in order; the first window containing the elapsed time wins.
type tierRule struct {
	tier     ActivityTier
	name     string
	within   time.Duration
	interval time.Duration
}

var tierRules = []tierRule{
	{TierHot, "hot", time.Hour, 2 * time.Minute},
	{TierActive, "active", 24 * time.Hour, 5 * time.Minute},
	{TierWarm, "warm", 7 * 24 * time.Hour, 15 * time.Minute},
	{TierStale, "stale", 0, 30 * time.Minute},
}

func ruleFor(tier ActivityTier) (tierRule, bool) {
	for _, r := range tierRules {
		if r.tier == tier {
			return r, true
		}
	}
	return tierRule{}, false
}

func (t ActivityTier) String() string {
	if r, ok := ruleFor(t); ok {
		return r.name
	}
	return "unknown"
}

// tierInterval returns how long to wait before polling a team in tier again.
// Unknown tiers poll on the active interval.
func tierInterval(tier ActivityTier) time.Duration {
	if r, ok := ruleFor(tier); ok {
		return r.interval
	}
	return 5 * time.Minute
}

// classifyActivity picks the tier for a team whose freshest change happened at
// lastActivity. The zero time means no items and is stale.
func classifyActivity(lastActivity, now time.Time) ActivityTier {
	if lastActivity.IsZero() {
		return TierStale
	}
	elapsed := now.Sub(lastActivity)
	for _, r := range tierRules {
		if r.within > 0 && elapsed < r.within {
			return r.tier
		}
	}
	return TierStale
}

// teamSchedule is the poller's mutable state for one team.
type teamSchedule struct {
	tier       ActivityTier
	nextPollAt time.Time
	lastPolled time.Time
}

// ScheduleInfo is a read-only copy of a team's polling schedule, reported by
// the HTTP API.
type ScheduleInfo struct {
	Tier       ActivityTier
	NextPollAt time.Time
	LastPolled time.Time
}

// freshestActivity returns the newest ChangedAt among the report's workload
// and unassigned items, or the zero time when there are none.
func freshestActivity(report model.TeamHealthReport) time.Time {
	var newest time.Time
	visit := func(items []model.WorkItem) {
		for _, item := range items {
			if item.ChangedAt.After(newest) {
				newest = item.ChangedAt
			}
		}
	}
	for _, w := range report.Workload {
		visit(w.Items)
	}
	visit(report.Unassigned)
	return newest
}
