package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

// Sources groups the remote adapters built from one set of credentials.
type Sources struct {
	WorkItems    driven.WorkItemSource
	PullRequests driven.PullRequestSource
	// User is the authenticated user's display name, if known.
	User string
}

// SourceProvider enables runtime hot-swap of the remote sources. It holds a
// mutex-protected reference to the current Sources, allowing a rotated token
// to take effect without restarting `adoctl serve`. The provider itself
// satisfies the source ports by delegating to the current value.
type SourceProvider struct {
	mu      sync.RWMutex
	sources Sources
}

var (
	_ driven.WorkItemSource    = (*SourceProvider)(nil)
	_ driven.PullRequestSource = (*SourceProvider)(nil)
)

// NewSourceProvider creates a new provider with the given initial sources.
// Fields may be nil if no credentials are available at startup.
func NewSourceProvider(sources Sources) *SourceProvider {
	return &SourceProvider{sources: sources}
}

// Get returns the current sources.
func (p *SourceProvider) Get() Sources {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sources
}

// Replace swaps the current sources. The next call through the provider uses
// the new values.
func (p *SourceProvider) Replace(sources Sources) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sources = sources
}

// HasWorkItemSource returns true if a non-nil work item source is held.
func (p *SourceProvider) HasWorkItemSource() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sources.WorkItems != nil
}

// FetchTeamWorkItems delegates to the current work item source.
func (p *SourceProvider) FetchTeamWorkItems(ctx context.Context, q driven.WorkItemQuery) ([]model.WorkItem, error) {
	src := p.Get().WorkItems
	if src == nil {
		return nil, ErrNoWorkItemSource
	}
	return src.FetchTeamWorkItems(ctx, q)
}

// GetWorkItem delegates to the current work item source.
func (p *SourceProvider) GetWorkItem(ctx context.Context, id int) (*model.WorkItem, error) {
	src := p.Get().WorkItems
	if src == nil {
		return nil, ErrNoWorkItemSource
	}
	return src.GetWorkItem(ctx, id)
}

// ListWorkItems delegates to the current work item source.
func (p *SourceProvider) ListWorkItems(ctx context.Context, f driven.WorkItemFilter) ([]model.WorkItem, error) {
	src := p.Get().WorkItems
	if src == nil {
		return nil, ErrNoWorkItemSource
	}
	return src.ListWorkItems(ctx, f)
}

// ListPullRequests delegates to the current pull request source.
func (p *SourceProvider) ListPullRequests(ctx context.Context, f driven.PullRequestFilter) ([]model.PullRequest, error) {
	src := p.Get().PullRequests
	if src == nil {
		return nil, ErrNoWorkItemSource
	}
	return src.ListPullRequests(ctx, f)
}
