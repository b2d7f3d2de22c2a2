package model

import "time"

// Reviewer is a reviewer on a pull request with their vote.
// Azure DevOps votes: 10 approved, 5 approved with suggestions, 0 none,
// -5 waiting for author, -10 rejected.
type Reviewer struct {
	DisplayName string
	UniqueName  string
	Vote        int
	IsRequired  bool
}

// PullRequest represents a pull request tracked by the remote service.
type PullRequest struct {
	ID           int
	Repository   string
	Title        string
	Author       Identity
	Status       PRStatus
	IsDraft      bool
	SourceBranch string
	TargetBranch string
	URL          string
	Reviewers    []Reviewer
	CreatedAt    time.Time
}

// DaysSinceOpened returns the number of days since the PR was opened.
func (pr PullRequest) DaysSinceOpened(now time.Time) int {
	return int(now.Sub(pr.CreatedAt).Hours() / 24)
}

// ApprovalCount returns the number of reviewers with a positive vote.
func (pr PullRequest) ApprovalCount() int {
	n := 0
	for _, r := range pr.Reviewers {
		if r.Vote > 0 {
			n++
		}
	}
	return n
}
