package azdo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

const (
	// maxBatchSize is the workitemsbatch endpoint's id limit.
	maxBatchSize = 200
	// batchConcurrency bounds the number of batch requests in flight.
	batchConcurrency = 4
)

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type workItemJSON struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
}

type batchResponse struct {
	Count int            `json:"count"`
	Value []workItemJSON `json:"value"`
}

// FetchTeamWorkItems runs the roster WIQL query and fetches item details in
// concurrent batches. Items are returned in the query's order.
func (c *Client) FetchTeamWorkItems(ctx context.Context, q driven.WorkItemQuery) ([]model.WorkItem, error) {
	wiql := buildTeamQuery(q)
	if wiql == "" {
		return []model.WorkItem{}, nil
	}

	ids, err := c.runQuery(ctx, wiql, 0)
	if err != nil {
		return nil, err
	}
	return c.fetchByIDs(ctx, ids)
}

// ListWorkItems runs an ad-hoc filtered listing, newest change first.
func (c *Client) ListWorkItems(ctx context.Context, f driven.WorkItemFilter) ([]model.WorkItem, error) {
	ids, err := c.runQuery(ctx, buildListQuery(f), f.Limit)
	if err != nil {
		return nil, err
	}
	return c.fetchByIDs(ctx, ids)
}

// GetWorkItem fetches a single work item by id.
func (c *Client) GetWorkItem(ctx context.Context, id int) (*model.WorkItem, error) {
	query := url.Values{"fields": {strings.Join(workItemFields, ",")}}

	var raw workItemJSON
	err := c.doJSON(ctx, http.MethodGet, c.projectURL("wit/workitems/"+strconv.Itoa(id), query), "", nil, &raw)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("work item %d: %w", id, driven.ErrWorkItemNotFound)
		}
		return nil, fmt.Errorf("get work item %d: %w", id, err)
	}

	item := c.mapWorkItem(raw)
	return &item, nil
}

// runQuery executes a WIQL query and returns the matching ids. top <= 0 means
// the server default.
func (c *Client) runQuery(ctx context.Context, wiql string, top int) ([]int, error) {
	query := url.Values{}
	if top > 0 {
		query.Set("$top", strconv.Itoa(top))
	}

	var resp wiqlResponse
	body := map[string]string{"query": wiql}
	if err := c.doJSON(ctx, http.MethodPost, c.projectURL("wit/wiql", query), "", body, &resp); err != nil {
		return nil, fmt.Errorf("run wiql query: %w", err)
	}

	ids := make([]int, 0, len(resp.WorkItems))
	for _, ref := range resp.WorkItems {
		ids = append(ids, ref.ID)
	}
	c.logger.Debug("wiql query complete", "matches", len(ids))
	return ids, nil
}

// fetchByIDs fetches details for ids in batches of maxBatchSize, at most
// batchConcurrency at a time, and reassembles them in the order of ids.
// Items deleted between the query and the fetch are skipped.
func (c *Client) fetchByIDs(ctx context.Context, ids []int) ([]model.WorkItem, error) {
	batches := chunk(ids, maxBatchSize)
	results := make([][]model.WorkItem, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			items, err := c.fetchBatch(gctx, batch)
			if err != nil {
				return fmt.Errorf("fetch work item batch %d/%d: %w", i+1, len(batches), err)
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int]model.WorkItem, len(ids))
	for _, items := range results {
		for _, item := range items {
			byID[item.ID] = item
		}
	}

	ordered := make([]model.WorkItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

func (c *Client) fetchBatch(ctx context.Context, ids []int) ([]model.WorkItem, error) {
	body := map[string]any{
		"ids":         ids,
		"fields":      workItemFields,
		"errorPolicy": "omit",
	}

	var resp batchResponse
	if err := c.doJSON(ctx, http.MethodPost, c.projectURL("wit/workitemsbatch", nil), "", body, &resp); err != nil {
		return nil, err
	}

	items := make([]model.WorkItem, 0, len(resp.Value))
	for _, raw := range resp.Value {
		if raw.ID == 0 {
			continue
		}
		items = append(items, c.mapWorkItem(raw))
	}
	return items, nil
}

func chunk(ids []int, size int) [][]int {
	var out [][]int
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}

// mapWorkItem converts the REST field bag to a domain work item. Missing
// priority and assignee stay nil.
func (c *Client) mapWorkItem(raw workItemJSON) model.WorkItem {
	f := raw.Fields
	return model.WorkItem{
		ID:            raw.ID,
		Title:         stringField(f, "System.Title"),
		Type:          stringField(f, "System.WorkItemType"),
		State:         stringField(f, "System.State"),
		AssignedTo:    identityField(f, "System.AssignedTo"),
		CreatedAt:     timeField(f, "System.CreatedDate"),
		ChangedAt:     timeField(f, "System.ChangedDate"),
		Priority:      intField(f, "Microsoft.VSTS.Common.Priority"),
		AreaPath:      stringField(f, "System.AreaPath"),
		IterationPath: stringField(f, "System.IterationPath"),
		Tags:          splitTags(stringField(f, "System.Tags")),
		URL:           c.workItemWebURL(raw.ID),
	}
}

func (c *Client) workItemWebURL(id int) string {
	return c.baseURL + "/" + url.PathEscape(c.project) + "/_workitems/edit/" + strconv.Itoa(id)
}

func stringField(f map[string]any, key string) string {
	s, _ := f[key].(string)
	return s
}

func intField(f map[string]any, key string) *int {
	switch v := f[key].(type) {
	case float64:
		i := int(v)
		return &i
	case string:
		if i, err := strconv.Atoi(v); err == nil {
			return &i
		}
	}
	return nil
}

func timeField(f map[string]any, key string) time.Time {
	s, _ := f[key].(string)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func identityField(f map[string]any, key string) *model.Identity {
	switch v := f[key].(type) {
	case map[string]any:
		id := &model.Identity{}
		id.DisplayName, _ = v["displayName"].(string)
		id.UniqueName, _ = v["uniqueName"].(string)
		if id.DisplayName == "" && id.UniqueName == "" {
			return nil
		}
		return id
	case string:
		return parseIdentityString(v)
	}
	return nil
}

// parseIdentityString handles the legacy "Display Name <unique@name>" form.
func parseIdentityString(s string) *model.Identity {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	open := strings.LastIndex(s, "<")
	if open > 0 && strings.HasSuffix(s, ">") {
		return &model.Identity{
			DisplayName: strings.TrimSpace(s[:open]),
			UniqueName:  s[open+1 : len(s)-1],
		}
	}
	return &model.Identity{DisplayName: s, UniqueName: s}
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
