package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v82/github"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Review votes on the Azure DevOps scale.
const (
	voteApproved        = 10
	voteNone            = 0
	voteChangesRequired = -10
)

const reviewFetchConcurrency = 4

// ListPullRequests lists the repository's pull requests with their reviewers.
// Completed and abandoned are told apart by whether the pull request merged.
// A Repository filter naming another repository yields an empty list.
func (c *Client) ListPullRequests(ctx context.Context, f driven.PullRequestFilter) ([]model.PullRequest, error) {
	if f.Repository != "" && !strings.EqualFold(f.Repository, c.repo) && !strings.EqualFold(f.Repository, c.FullName()) {
		return []model.PullRequest{}, nil
	}

	status := f.Status
	if status == "" {
		status = model.PRStatusActive
	}

	opts := &gh.PullRequestListOptions{
		State:     githubPRState(status),
		Sort:      "created",
		Direction: "desc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	prs := []model.PullRequest{}
collect:
	for {
		page, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", c.FullName(), opts.Page, err)
		}

		c.logRateLimit(resp, c.FullName()+"/pulls", opts.Page, len(page))

		for _, pr := range page {
			mapped := mapPullRequest(pr, c.repo)
			if status != model.PRStatusAll && mapped.Status != status {
				continue
			}
			prs = append(prs, mapped)
			if f.Limit > 0 && len(prs) >= f.Limit {
				break collect
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if err := c.attachReviews(ctx, prs); err != nil {
		return nil, err
	}
	return prs, nil
}

// attachReviews merges submitted reviews into each pull request's reviewer
// list. The latest review per user sets the vote.
func (c *Client) attachReviews(ctx context.Context, prs []model.PullRequest) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reviewFetchConcurrency)

	for i := range prs {
		g.Go(func() error {
			reviews, err := c.fetchReviews(ctx, prs[i].ID)
			if err != nil {
				return err
			}
			prs[i].Reviewers = mergeReviews(prs[i].Reviewers, reviews)
			return nil
		})
	}
	return g.Wait()
}

func (c *Client) fetchReviews(ctx context.Context, number int) ([]*gh.PullRequestReview, error) {
	var all []*gh.PullRequestReview
	opts := &gh.ListOptions{PerPage: 100}

	for {
		reviews, resp, err := c.gh.PullRequests.ListReviews(ctx, c.owner, c.repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("listing reviews for %s#%d: %w", c.FullName(), number, err)
		}

		c.logRateLimit(resp, fmt.Sprintf("%s/pulls/%d/reviews", c.FullName(), number), opts.Page, len(reviews))
		all = append(all, reviews...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// mergeReviews applies reviews (in submission order) on top of the requested
// reviewers. Comment-only reviews add the reviewer without changing a vote.
func mergeReviews(reviewers []model.Reviewer, reviews []*gh.PullRequestReview) []model.Reviewer {
	index := make(map[string]int, len(reviewers))
	for i, r := range reviewers {
		index[strings.ToLower(r.UniqueName)] = i
	}

	for _, rv := range reviews {
		login := rv.GetUser().GetLogin()
		if login == "" {
			continue
		}
		key := strings.ToLower(login)
		i, ok := index[key]
		if !ok {
			reviewers = append(reviewers, model.Reviewer{DisplayName: login, UniqueName: login})
			i = len(reviewers) - 1
			index[key] = i
		}
		switch rv.GetState() {
		case "APPROVED":
			reviewers[i].Vote = voteApproved
		case "CHANGES_REQUESTED":
			reviewers[i].Vote = voteChangesRequired
		case "DISMISSED":
			reviewers[i].Vote = voteNone
		}
	}
	return reviewers
}

func githubPRState(s model.PRStatus) string {
	switch s {
	case model.PRStatusActive:
		return "open"
	case model.PRStatusAll:
		return "all"
	default:
		return "closed"
	}
}

// mapPullRequest converts a go-github PullRequest to a domain model PullRequest.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapPullRequest(pr *gh.PullRequest, repo string) model.PullRequest {
	status := model.PRStatusActive
	if pr.GetState() == "closed" {
		status = model.PRStatusAbandoned
		if pr.MergedAt != nil {
			status = model.PRStatusCompleted
		}
	}

	mapped := model.PullRequest{
		ID:         pr.GetNumber(),
		Repository: repo,
		Title:      pr.GetTitle(),
		Author: model.Identity{
			DisplayName: pr.GetUser().GetLogin(),
			UniqueName:  pr.GetUser().GetLogin(),
		},
		Status:       status,
		IsDraft:      pr.GetDraft(),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		URL:          pr.GetHTMLURL(),
		CreatedAt:    pr.GetCreatedAt().Time,
	}

	for _, u := range pr.RequestedReviewers {
		mapped.Reviewers = append(mapped.Reviewers, model.Reviewer{
			DisplayName: u.GetLogin(),
			UniqueName:  u.GetLogin(),
			Vote:        voteNone,
		})
	}

	return mapped
}
