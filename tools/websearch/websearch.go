// Package websearch implements the web_search tool: a thin client over the
// Brave Search API. Results are returned in the order the search API ranks
// them, with no local re-ranking.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// Tool performs web searches via the Brave Search API.
type Tool struct {
	apiKey      string
	endpoint    string
	httpClient  *http.Client
	resultCount int
}

// New constructs the web_search tool. apiKey is the Brave subscription
// token, supplied by the caller — never hardcoded.
func New(apiKey string) *Tool {
	return &Tool{
		apiKey:      apiKey,
		endpoint:    defaultBraveEndpoint,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		resultCount: 5,
	}
}

// WithEndpoint overrides the search API base URL, primarily for tests.
func (t *Tool) WithEndpoint(endpoint string) *Tool {
	t.endpoint = endpoint
	return t
}

func (t *Tool) Name() string { return "web_search" }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"Search query optimized for search engines"}},"required":["query"]}`)
}

type params struct {
	Query string `json:"query"`
}

type braveResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("web_search: invalid params: %w", err)
	}
	if strings.TrimSpace(p.Query) == "" {
		return "", fmt.Errorf("web_search: query must not be empty")
	}

	results, err := t.braveSearch(ctx, p.Query)
	if err != nil {
		return "", fmt.Errorf("web_search: %w", err)
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q.", p.Query), nil
	}
	return formatResults(results), nil
}

func (t *Tool) braveSearch(ctx context.Context, query string) ([]braveResult, error) {
	u := fmt.Sprintf("%s?q=%s&count=%d",
		t.endpoint, url.QueryEscape(query), t.resultCount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("brave search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("brave API %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		Web struct {
			Results []braveResult `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("brave response parse error: %w", err)
	}
	return data.Web.Results, nil
}

func formatResults(results []braveResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n", i+1, r.Title, r.URL, r.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (t *Tool) Fallback(raw json.RawMessage, cause error) string {
	return "Web search is temporarily unavailable."
}
