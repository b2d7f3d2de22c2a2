// Package azdo implements the work item, pull request and token validation
// ports against the Azure DevOps REST API (version 7.1).
package azdo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

const (
	// DefaultBaseURL is the Azure DevOps Services host.
	DefaultBaseURL = "https://dev.azure.com"

	apiVersion     = "7.1"
	requestTimeout = 30 * time.Second
)

// Compile-time interface satisfaction checks.
var (
	_ driven.WorkItemSource    = (*Client)(nil)
	_ driven.PullRequestSource = (*Client)(nil)
	_ driven.TokenValidator    = (*Client)(nil)
)

// APIError is returned for any non-2xx response from Azure DevOps.
type APIError struct {
	StatusCode int
	Message    string
	TypeKey    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("azure devops: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("azure devops: HTTP %d: %s", e.StatusCode, e.Message)
}

// Client talks to one Azure DevOps organization and project.
type Client struct {
	http    *http.Client
	baseURL string // https://dev.azure.com/{org}
	project string
	token   string
	logger  *slog.Logger
}

// NewClient creates a new Azure DevOps client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching for GETs)
//  2. net/http with a 30-second timeout
//
// Requests authenticate with HTTP basic auth using an empty user and the PAT.
func NewClient(organization, project, token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	httpClient := &http.Client{Transport: cacheTransport, Timeout: requestTimeout}

	c, _ := NewClientWithHTTPClient(httpClient, DefaultBaseURL, organization, project, token)
	return c
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest
// server, and for Azure DevOps Server installations.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, organization, project, token string) (*Client, error) {
	if organization == "" {
		return nil, fmt.Errorf("azure devops organization is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	u = u.JoinPath(organization)

	return &Client{
		http:    httpClient,
		baseURL: u.String(),
		project: project,
		token:   token,
		logger:  slog.Default().With("component", "azdo"),
	}, nil
}

// WithLogger returns the client with a different logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// projectURL builds {base}/{org}/{project}/_apis/{path}?api-version=7.1&query.
func (c *Client) projectURL(path string, query url.Values) string {
	return c.buildURL(url.PathEscape(c.project)+"/_apis/"+path, query)
}

// orgURL builds {base}/{org}/_apis/{path}?api-version=7.1&query.
func (c *Client) orgURL(path string, query url.Values) string {
	return c.buildURL("_apis/"+path, query)
}

func (c *Client) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	return c.baseURL + "/" + path + "?" + query.Encode()
}

// doJSON sends a request with an optional JSON body and decodes a JSON
// response into out. token overrides the client's PAT when non-empty.
func (c *Client) doJSON(ctx context.Context, method, rawURL, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if token == "" {
		token = c.token
	}
	req.SetBasicAuth("", token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("azure devops api call",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"cached", resp.Header.Get(httpcache.XFromCache) == "1",
		"duration", time.Since(start).Round(time.Millisecond),
	)

	// 203 is how Azure DevOps answers a bad PAT: an HTML sign-in page.
	if resp.StatusCode < 200 || resp.StatusCode > 299 || resp.StatusCode == http.StatusNonAuthoritativeInfo {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
		TypeKey string `json:"typeKey"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.TypeKey = payload.TypeKey
	} else if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNonAuthoritativeInfo {
		apiErr.Message = "authentication failed: check the personal access token"
	}
	return apiErr
}

// ValidateToken verifies the given PAT against the organization and returns
// the authenticated user's display name. It does not modify the receiver.
func (c *Client) ValidateToken(ctx context.Context, token string) (string, error) {
	var data struct {
		AuthenticatedUser struct {
			ProviderDisplayName string `json:"providerDisplayName"`
			CustomDisplayName   string `json:"customDisplayName"`
		} `json:"authenticatedUser"`
	}
	if err := c.doJSON(ctx, http.MethodGet, c.orgURL("connectionData", nil), token, nil, &data); err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}

	user := data.AuthenticatedUser
	if user.CustomDisplayName != "" {
		return user.CustomDisplayName, nil
	}
	if user.ProviderDisplayName == "" || user.ProviderDisplayName == "Anonymous" {
		return "", fmt.Errorf("token validation failed: %w", &APIError{StatusCode: http.StatusUnauthorized, Message: "anonymous identity"})
	}
	return user.ProviderDisplayName, nil
}
