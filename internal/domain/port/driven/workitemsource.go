// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// ErrWorkItemNotFound indicates the requested work item does not exist.
var ErrWorkItemNotFound = errors.New("work item not found")

// WorkItemQuery selects the work items of a team roster.
type WorkItemQuery struct {
	Members []model.TeamMember
	// ActiveOnly restricts the result to items whose state is not in
	// CompletedStates.
	ActiveOnly      bool
	CompletedStates []string
	// IncludeUnassigned adds items without an assignee to the result.
	IncludeUnassigned bool
}

// WorkItemFilter narrows an ad-hoc work item listing.
type WorkItemFilter struct {
	AssignedTo string // Email or "@me"; empty means anyone.
	State      string
	Type       string
	Limit      int
}

// WorkItemSource defines the driven port for reading work items from the
// remote tracker.
type WorkItemSource interface {
	// FetchTeamWorkItems returns the work items assigned to the roster, in the
	// order the tracker reports them.
	FetchTeamWorkItems(ctx context.Context, q WorkItemQuery) ([]model.WorkItem, error)
	// GetWorkItem returns a single item. Returns ErrWorkItemNotFound if absent.
	GetWorkItem(ctx context.Context, id int) (*model.WorkItem, error)
	ListWorkItems(ctx context.Context, f WorkItemFilter) ([]model.WorkItem, error)
}
