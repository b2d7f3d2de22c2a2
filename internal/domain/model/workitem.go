package model

import (
	"math"
	"time"
)

// Identity is a person reference as returned by the work tracking system.
type Identity struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"` // Email or login.
}

// WorkItem is an immutable snapshot of an externally tracked unit of work.
type WorkItem struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	State         string    `json:"state"`
	AssignedTo    *Identity `json:"assignedTo,omitempty"` // nil means unassigned.
	CreatedAt     time.Time `json:"createdAt"`
	ChangedAt     time.Time `json:"changedAt"`
	Priority      *int      `json:"priority,omitempty"` // 1 (highest) to 4; nil when unset.
	AreaPath      string    `json:"areaPath,omitempty"`
	IterationPath string    `json:"iterationPath,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	URL           string    `json:"url,omitempty"`
}

// lowestPriority is used wherever an unset priority has to be compared.
const lowestPriority = 4

// EffectivePriority returns the item's priority, or 4 when unset.
func (w WorkItem) EffectivePriority() int {
	if w.Priority == nil {
		return lowestPriority
	}
	return *w.Priority
}

// IsHighPriority reports whether the item has priority 1 or 2.
func (w WorkItem) IsHighPriority() bool {
	return w.EffectivePriority() <= 2
}

// IsUnassigned reports whether the item has no assignee.
func (w WorkItem) IsUnassigned() bool {
	return w.AssignedTo == nil
}

// DaysSinceUpdate returns the whole number of days between ChangedAt and now,
// rounded down.
func (w WorkItem) DaysSinceUpdate(now time.Time) int {
	return int(math.Floor(now.Sub(w.ChangedAt).Hours() / 24))
}

// AssigneeName returns the display name of the assignee, or "" if unassigned.
func (w WorkItem) AssigneeName() string {
	if w.AssignedTo == nil {
		return ""
	}
	return w.AssignedTo.DisplayName
}
