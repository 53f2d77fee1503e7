// Package search provides the web-search client backing the searchWeb
// tool. It talks to a SerpAPI-compatible endpoint and condenses the
// response to the handful of fields the model needs.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the SerpAPI endpoint.
	DefaultBaseURL = "https://serpapi.com/search"

	// DefaultMaxResults bounds how many results feed the tool output.
	DefaultMaxResults = 5

	defaultTimeout = 15 * time.Second
)

// ErrNoAPIKey indicates the search credential is not configured.
var ErrNoAPIKey = errors.New("search API key not configured")

// Result is one condensed search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// response mirrors the provider's JSON envelope.
type response struct {
	Organic []Result `json:"organic_results"`
}

// Client queries the search API.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// ClientConfig configures a search client.
// Zero values use the package defaults.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	MaxResults int
	Timeout    time.Duration
}

// NewClient creates a search client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs a web search and returns at most MaxResults hits in
// provider order. Returns ErrNoAPIKey when no credential is set.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search API returned status %d: %s", resp.StatusCode, body)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	results := parsed.Organic
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	return results, nil
}
