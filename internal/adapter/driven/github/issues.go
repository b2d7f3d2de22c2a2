package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Work item states derived from issues.
const (
	StateNew     = "New"
	StateActive  = "Active"
	StateBlocked = "Blocked"
	StateClosed  = "Closed"
	StateRemoved = "Removed"
)

// Label conventions understood by the issue mapping:
//
//	status:<State>   overrides the derived state of an open issue
//	blocked          marks an open issue Blocked
//	type:<Type>      sets the work item type (default "Issue")
//	priority:<1-4>   or P1..P4 sets the priority
const (
	statusLabelPrefix   = "status:"
	typeLabelPrefix     = "type:"
	priorityLabelPrefix = "priority:"
	blockedLabel        = "blocked"
	defaultItemType     = "Issue"
)

// FetchTeamWorkItems lists the repository's issues (pull requests excluded)
// and keeps those assigned to a roster member, plus unassigned ones when
// requested. Issues are returned most recently updated first.
func (c *Client) FetchTeamWorkItems(ctx context.Context, q driven.WorkItemQuery) ([]model.WorkItem, error) {
	if len(q.Members) == 0 && !q.IncludeUnassigned {
		return []model.WorkItem{}, nil
	}

	state := "all"
	if q.ActiveOnly {
		state = "open"
	}

	completed := model.StateCategories{Completed: q.CompletedStates}
	items, err := c.listIssues(ctx, &gh.IssueListByRepoOptions{State: state}, 0, func(item model.WorkItem) bool {
		if q.ActiveOnly && completed.IsCompleted(item.State) {
			return false
		}
		if item.IsUnassigned() {
			return q.IncludeUnassigned
		}
		for _, m := range q.Members {
			if m.Matches(item.AssignedTo) {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ListWorkItems lists issues filtered by assignee login ("@me" resolves to the
// token's user), state and type. State and type are matched case-insensitively
// against the mapped values.
func (c *Client) ListWorkItems(ctx context.Context, f driven.WorkItemFilter) ([]model.WorkItem, error) {
	opts := &gh.IssueListByRepoOptions{State: "all"}
	switch {
	case strings.EqualFold(f.AssignedTo, "@me"):
		user, _, err := c.gh.Users.Get(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("resolving current user: %w", err)
		}
		opts.Assignee = user.GetLogin()
	case f.AssignedTo != "":
		opts.Assignee = f.AssignedTo
	}
	if strings.EqualFold(f.State, StateClosed) {
		opts.State = "closed"
	}

	return c.listIssues(ctx, opts, f.Limit, func(item model.WorkItem) bool {
		if f.State != "" && !strings.EqualFold(item.State, f.State) {
			return false
		}
		return f.Type == "" || strings.EqualFold(item.Type, f.Type)
	})
}

// GetWorkItem fetches a single issue by number.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*model.WorkItem, error) {
	issue, _, err := c.gh.Issues.Get(ctx, c.owner, c.repo, id)
	if err != nil {
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("issue %d: %w", id, driven.ErrWorkItemNotFound)
		}
		return nil, fmt.Errorf("getting issue %s#%d: %w", c.FullName(), id, err)
	}
	if issue.IsPullRequest() {
		return nil, fmt.Errorf("#%d is a pull request: %w", id, driven.ErrWorkItemNotFound)
	}

	item := mapIssue(issue)
	return &item, nil
}

// listIssues pages through the repository's issues, keeping mapped items for
// which keep returns true, until limit items are collected (limit <= 0 means
// all).
func (c *Client) listIssues(ctx context.Context, opts *gh.IssueListByRepoOptions, limit int, keep func(model.WorkItem) bool) ([]model.WorkItem, error) {
	opts.Sort = "updated"
	opts.Direction = "desc"
	opts.ListOptions = gh.ListOptions{PerPage: 100}

	items := []model.WorkItem{}
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s (page %d): %w", c.FullName(), opts.ListOptions.Page, err)
		}

		c.logRateLimit(resp, c.FullName()+"/issues", opts.ListOptions.Page, len(issues))

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			item := mapIssue(issue)
			if !keep(item) {
				continue
			}
			items = append(items, item)
			if limit > 0 && len(items) >= limit {
				return items, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return items, nil
}

// mapIssue converts a go-github Issue to a domain work item.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapIssue(issue *gh.Issue) model.WorkItem {
	item := model.WorkItem{
		ID:        issue.GetNumber(),
		Title:     issue.GetTitle(),
		Type:      defaultItemType,
		CreatedAt: issue.GetCreatedAt().Time,
		ChangedAt: issue.GetUpdatedAt().Time,
		URL:       issue.GetHTMLURL(),
	}

	if assignee := firstAssignee(issue); assignee != nil {
		item.AssignedTo = &model.Identity{
			DisplayName: assignee.GetLogin(),
			UniqueName:  assignee.GetLogin(),
		}
	}

	var statusLabel string
	var blocked bool
	for _, l := range issue.Labels {
		name := strings.TrimSpace(l.GetName())
		lower := strings.ToLower(name)
		switch {
		case strings.HasPrefix(lower, statusLabelPrefix):
			statusLabel = strings.TrimSpace(name[len(statusLabelPrefix):])
		case strings.HasPrefix(lower, typeLabelPrefix):
			item.Type = strings.TrimSpace(name[len(typeLabelPrefix):])
		case lower == blockedLabel:
			blocked = true
		default:
			if p, ok := parsePriorityLabel(lower); ok {
				item.Priority = &p
				continue
			}
			item.Tags = append(item.Tags, name)
		}
	}

	item.State = issueState(issue, statusLabel, blocked)
	return item
}

func firstAssignee(issue *gh.Issue) *gh.User {
	if issue.Assignee != nil {
		return issue.Assignee
	}
	if len(issue.Assignees) > 0 {
		return issue.Assignees[0]
	}
	return nil
}

func issueState(issue *gh.Issue, statusLabel string, blocked bool) string {
	if issue.GetState() == "closed" {
		if issue.GetStateReason() == "not_planned" {
			return StateRemoved
		}
		return StateClosed
	}
	switch {
	case statusLabel != "":
		return statusLabel
	case blocked:
		return StateBlocked
	case firstAssignee(issue) == nil:
		return StateNew
	default:
		return StateActive
	}
}

// parsePriorityLabel accepts "priority:N" and "pN" for N in 1..4.
func parsePriorityLabel(lower string) (int, bool) {
	var digits string
	switch {
	case strings.HasPrefix(lower, priorityLabelPrefix):
		digits = strings.TrimSpace(lower[len(priorityLabelPrefix):])
	case len(lower) == 2 && lower[0] == 'p':
		digits = lower[1:]
	default:
		return 0, false
	}
	p, err := strconv.Atoi(digits)
	if err != nil || p < 1 || p > 4 {
		return 0, false
	}
	return p, true
}
