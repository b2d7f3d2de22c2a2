package driven

import (
	"context"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// PullRequestFilter narrows a pull request listing.
type PullRequestFilter struct {
	Status     model.PRStatus // Empty means active.
	Repository string         // Empty means every repository in the project.
	Limit      int
}

// PullRequestSource defines the driven port for reading pull requests.
type PullRequestSource interface {
	ListPullRequests(ctx context.Context, f PullRequestFilter) ([]model.PullRequest, error)
}

// TokenValidator verifies a personal access token against the remote service.
type TokenValidator interface {
	// ValidateToken returns the authenticated user's display name on success.
	ValidateToken(ctx context.Context, token string) (string, error)
}
