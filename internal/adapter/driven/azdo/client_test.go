package azdo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/adapter/driven/azdo"
	"github.com/ericfisherdev/adoctl/internal/domain/model"
	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

const testToken = "test-pat"

// newTestClient creates a Client backed by the given httptest handler for
// organization "contoso" and project "Fabrikam".
func newTestClient(t *testing.T, handler http.Handler) *azdo.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := azdo.NewClientWithHTTPClient(server.Client(), server.URL, "contoso", "Fabrikam", testToken)
	require.NoError(t, err)
	return client
}

// requireAuth fails the request unless it carries the expected basic auth.
func requireAuth(t *testing.T, r *http.Request, token string) {
	t.Helper()
	user, pass, ok := r.BasicAuth()
	assert.True(t, ok, "basic auth missing")
	assert.Equal(t, "", user)
	assert.Equal(t, token, pass)
	assert.Equal(t, "7.1", r.URL.Query().Get("api-version"))
}

func itemJSON(id int) map[string]any {
	return map[string]any{
		"id": id,
		"fields": map[string]any{
			"System.Id":           id,
			"System.Title":        fmt.Sprintf("Item %d", id),
			"System.WorkItemType": "Task",
			"System.State":        "Active",
			"System.CreatedDate":  "2026-03-01T10:00:00.123Z",
			"System.ChangedDate":  "2026-03-10T08:30:00Z",
		},
	}
}

// workItemServer serves WIQL returning ids and a batch endpoint that answers
// each batch in reverse order, counting batch calls.
func workItemServer(t *testing.T, ids []int, batchCalls *atomic.Int32, lastQuery *atomic.Value) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /contoso/Fabrikam/_apis/wit/wiql", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r, testToken)
		var body struct {
			Query string `json:"query"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if lastQuery != nil {
			lastQuery.Store(body.Query)
		}

		refs := make([]map[string]int, 0, len(ids))
		for _, id := range ids {
			refs = append(refs, map[string]int{"id": id})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"workItems": refs})
	})
	mux.HandleFunc("POST /contoso/Fabrikam/_apis/wit/workitemsbatch", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r, testToken)
		batchCalls.Add(1)

		var body struct {
			IDs    []int    `json:"ids"`
			Fields []string `json:"fields"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.LessOrEqual(t, len(body.IDs), 200)
		assert.Contains(t, body.Fields, "System.AssignedTo")

		value := make([]map[string]any, 0, len(body.IDs))
		for i := len(body.IDs) - 1; i >= 0; i-- {
			value = append(value, itemJSON(body.IDs[i]))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"count": len(value), "value": value})
	})
	return mux
}

func TestFetchTeamWorkItems_BatchesPreserveQueryOrder(t *testing.T) {
	ids := make([]int, 450)
	for i := range ids {
		ids[i] = 1000 - i
	}

	var batchCalls atomic.Int32
	client := newTestClient(t, workItemServer(t, ids, &batchCalls, nil))

	items, err := client.FetchTeamWorkItems(context.Background(), driven.WorkItemQuery{
		Members:           []model.TeamMember{{Name: "Alice", Email: "alice@contoso.com"}},
		IncludeUnassigned: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(3), batchCalls.Load())
	require.Len(t, items, len(ids))
	for i, item := range items {
		require.Equal(t, ids[i], item.ID, "position %d", i)
	}
}

func TestFetchTeamWorkItems_SendsRosterQuery(t *testing.T) {
	var batchCalls atomic.Int32
	var lastQuery atomic.Value
	client := newTestClient(t, workItemServer(t, []int{1}, &batchCalls, &lastQuery))

	_, err := client.FetchTeamWorkItems(context.Background(), driven.WorkItemQuery{
		Members:         []model.TeamMember{{Name: "Sean", Email: "o'brien@contoso.com"}},
		ActiveOnly:      true,
		CompletedStates: []string{"Closed"},
	})
	require.NoError(t, err)

	q, _ := lastQuery.Load().(string)
	assert.Contains(t, q, "[System.AssignedTo] IN ('o''brien@contoso.com', 'Sean')")
	assert.Contains(t, q, "[System.State] NOT IN ('Closed')")
	assert.NotContains(t, q, "[System.AssignedTo] = ''")
}

func TestFetchTeamWorkItems_EmptyQuerySkipsRequests(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
		w.WriteHeader(http.StatusInternalServerError)
	}))

	items, err := client.FetchTeamWorkItems(context.Background(), driven.WorkItemQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchTeamWorkItems_NoMatches(t *testing.T) {
	var batchCalls atomic.Int32
	client := newTestClient(t, workItemServer(t, nil, &batchCalls, nil))

	items, err := client.FetchTeamWorkItems(context.Background(), driven.WorkItemQuery{IncludeUnassigned: true})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(0), batchCalls.Load())
}

func TestFetchTeamWorkItems_APIError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"TF51005: The query references a field that does not exist.","typeKey":"WorkItemTrackingQueryResultTypeException"}`))
	}))

	_, err := client.FetchTeamWorkItems(context.Background(), driven.WorkItemQuery{IncludeUnassigned: true})
	require.Error(t, err)

	var apiErr *azdo.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "TF51005")
}

func TestGetWorkItem_MapsFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contoso/Fabrikam/_apis/wit/workitems/42", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r, testToken)
		_, _ = w.Write([]byte(`{
			"id": 42,
			"fields": {
				"System.Title": "Fix login",
				"System.WorkItemType": "Bug",
				"System.State": "In Progress",
				"System.AssignedTo": {"displayName": "Alice Smith", "uniqueName": "alice@contoso.com"},
				"System.CreatedDate": "2026-03-01T10:00:00.123Z",
				"System.ChangedDate": "2026-03-10T08:30:00Z",
				"Microsoft.VSTS.Common.Priority": 1,
				"System.AreaPath": "Fabrikam\\Web",
				"System.IterationPath": "Fabrikam\\Sprint 7",
				"System.Tags": "auth; regression"
			}
		}`))
	})
	client := newTestClient(t, mux)

	item, err := client.GetWorkItem(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, 42, item.ID)
	assert.Equal(t, "Fix login", item.Title)
	assert.Equal(t, "Bug", item.Type)
	assert.Equal(t, "In Progress", item.State)
	require.NotNil(t, item.AssignedTo)
	assert.Equal(t, "alice@contoso.com", item.AssignedTo.UniqueName)
	require.NotNil(t, item.Priority)
	assert.Equal(t, 1, *item.Priority)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC), item.ChangedAt)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 123_000_000, time.UTC), item.CreatedAt)
	assert.Equal(t, `Fabrikam\Sprint 7`, item.IterationPath)
	assert.Equal(t, []string{"auth", "regression"}, item.Tags)
	assert.Contains(t, item.URL, "/contoso/Fabrikam/_workitems/edit/42")
}

func TestGetWorkItem_MissingOptionalFieldsStayNil(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(itemJSON(7))
	}))

	item, err := client.GetWorkItem(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, item.AssignedTo)
	assert.Nil(t, item.Priority)
	assert.Nil(t, item.Tags)
	assert.True(t, item.IsUnassigned())
}

func TestGetWorkItem_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"TF401232: Work item 9 does not exist."}`))
	}))

	_, err := client.GetWorkItem(context.Background(), 9)
	assert.ErrorIs(t, err, driven.ErrWorkItemNotFound)
}

func TestListWorkItems_PassesTop(t *testing.T) {
	var batchCalls atomic.Int32
	inner := workItemServer(t, []int{3, 2, 1}, &batchCalls, nil)
	var top atomic.Value
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/contoso/Fabrikam/_apis/wit/wiql" {
			top.Store(r.URL.Query().Get("$top"))
		}
		inner.ServeHTTP(w, r)
	}))

	items, err := client.ListWorkItems(context.Background(), driven.WorkItemFilter{State: "Active", Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, "3", top.Load())
	require.Len(t, items, 3)
	assert.Equal(t, 3, items[0].ID)
}

func TestListPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contoso/Fabrikam/_apis/git/repositories/web/pullrequests", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r, testToken)
		assert.Equal(t, "completed", r.URL.Query().Get("searchCriteria.status"))
		assert.Equal(t, "10", r.URL.Query().Get("$top"))
		_, _ = w.Write([]byte(`{"count": 1, "value": [{
			"pullRequestId": 17,
			"title": "Add retries",
			"status": "completed",
			"isDraft": false,
			"sourceRefName": "refs/heads/feature/retries",
			"targetRefName": "refs/heads/main",
			"creationDate": "2026-03-05T12:00:00Z",
			"repository": {"name": "web"},
			"createdBy": {"displayName": "Bob Jones", "uniqueName": "bob@contoso.com"},
			"reviewers": [
				{"displayName": "Alice Smith", "uniqueName": "alice@contoso.com", "vote": 10, "isRequired": true},
				{"displayName": "Carol", "uniqueName": "carol@contoso.com", "vote": -5}
			]
		}]}`))
	})
	client := newTestClient(t, mux)

	prs, err := client.ListPullRequests(context.Background(), driven.PullRequestFilter{
		Status:     model.PRStatusCompleted,
		Repository: "web",
		Limit:      10,
	})
	require.NoError(t, err)
	require.Len(t, prs, 1)

	pr := prs[0]
	assert.Equal(t, 17, pr.ID)
	assert.Equal(t, "web", pr.Repository)
	assert.Equal(t, model.PRStatusCompleted, pr.Status)
	assert.Equal(t, "feature/retries", pr.SourceBranch)
	assert.Equal(t, "main", pr.TargetBranch)
	assert.Equal(t, "bob@contoso.com", pr.Author.UniqueName)
	assert.Equal(t, 1, pr.ApprovalCount())
	assert.Contains(t, pr.URL, "/_git/web/pullrequest/17")
}

func TestListPullRequests_DefaultsToActive(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contoso/Fabrikam/_apis/git/pullrequests", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("searchCriteria.status"))
		_, _ = w.Write([]byte(`{"count": 0, "value": []}`))
	}))

	prs, err := client.ListPullRequests(context.Background(), driven.PullRequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestValidateToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contoso/_apis/connectionData", func(w http.ResponseWriter, r *http.Request) {
		_, pass, _ := r.BasicAuth()
		switch pass {
		case "good-token":
			_, _ = w.Write([]byte(`{"authenticatedUser": {"providerDisplayName": "Alice Smith"}}`))
		case "anon-token":
			_, _ = w.Write([]byte(`{"authenticatedUser": {"providerDisplayName": "Anonymous"}}`))
		case "html-token":
			w.WriteHeader(http.StatusNonAuthoritativeInfo)
			_, _ = w.Write([]byte(`<html>sign in</html>`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	client := newTestClient(t, mux)

	user, err := client.ValidateToken(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", user)

	for _, token := range []string{"bad-token", "anon-token", "html-token"} {
		t.Run(token, func(t *testing.T) {
			_, err := client.ValidateToken(context.Background(), token)
			var apiErr *azdo.APIError
			require.ErrorAs(t, err, &apiErr)
		})
	}
}

func TestNewClientWithHTTPClient_RequiresOrganization(t *testing.T) {
	_, err := azdo.NewClientWithHTTPClient(http.DefaultClient, azdo.DefaultBaseURL, "", "Fabrikam", testToken)
	assert.Error(t, err)
}
