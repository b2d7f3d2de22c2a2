package azdo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

type pullRequestJSON struct {
	PullRequestID int    `json:"pullRequestId"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	IsDraft       bool   `json:"isDraft"`
	SourceRefName string `json:"sourceRefName"`
	TargetRefName string `json:"targetRefName"`
	CreationDate  string `json:"creationDate"`
	Repository    struct {
		Name string `json:"name"`
	} `json:"repository"`
	CreatedBy struct {
		DisplayName string `json:"displayName"`
		UniqueName  string `json:"uniqueName"`
	} `json:"createdBy"`
	Reviewers []struct {
		DisplayName string `json:"displayName"`
		UniqueName  string `json:"uniqueName"`
		Vote        int    `json:"vote"`
		IsRequired  bool   `json:"isRequired"`
	} `json:"reviewers"`
}

type pullRequestList struct {
	Count int               `json:"count"`
	Value []pullRequestJSON `json:"value"`
}

// ListPullRequests lists pull requests across the project, or in one
// repository when the filter names it.
func (c *Client) ListPullRequests(ctx context.Context, f driven.PullRequestFilter) ([]model.PullRequest, error) {
	status := f.Status
	if status == "" {
		status = model.PRStatusActive
	}

	query := url.Values{"searchCriteria.status": {string(status)}}
	if f.Limit > 0 {
		query.Set("$top", strconv.Itoa(f.Limit))
	}

	path := "git/pullrequests"
	if f.Repository != "" {
		path = "git/repositories/" + url.PathEscape(f.Repository) + "/pullrequests"
	}

	var resp pullRequestList
	if err := c.doJSON(ctx, http.MethodGet, c.projectURL(path, query), "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}

	prs := make([]model.PullRequest, 0, len(resp.Value))
	for _, raw := range resp.Value {
		prs = append(prs, c.mapPullRequest(raw))
	}
	return prs, nil
}

func (c *Client) mapPullRequest(raw pullRequestJSON) model.PullRequest {
	pr := model.PullRequest{
		ID:         raw.PullRequestID,
		Repository: raw.Repository.Name,
		Title:      raw.Title,
		Author: model.Identity{
			DisplayName: raw.CreatedBy.DisplayName,
			UniqueName:  raw.CreatedBy.UniqueName,
		},
		Status:       model.PRStatus(raw.Status),
		IsDraft:      raw.IsDraft,
		SourceBranch: strings.TrimPrefix(raw.SourceRefName, "refs/heads/"),
		TargetBranch: strings.TrimPrefix(raw.TargetRefName, "refs/heads/"),
		URL: c.baseURL + "/" + url.PathEscape(c.project) + "/_git/" +
			url.PathEscape(raw.Repository.Name) + "/pullrequest/" + strconv.Itoa(raw.PullRequestID),
	}
	if t, err := time.Parse(time.RFC3339Nano, raw.CreationDate); err == nil {
		pr.CreatedAt = t
	}
	for _, r := range raw.Reviewers {
		pr.Reviewers = append(pr.Reviewers, model.Reviewer{
			DisplayName: r.DisplayName,
			UniqueName:  r.UniqueName,
			Vote:        r.Vote,
			IsRequired:  r.IsRequired,
		})
	}
	return pr
}
