package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/FranksOps/prospect/internal/metrics"
	"github.com/FranksOps/prospect/pkg/httpclient"
)

const defaultBaseURL = "https://google.serper.dev"

// ClientConfig configures the production API client.
type ClientConfig struct {
	APIKey  string
	BaseURL string // override for tests, defaults to the hosted endpoint
	Timeout time.Duration
}

// Client is the HTTP implementation of Provider.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpclient.Client
}

var _ Provider = (*Client)(nil)

// NewClient creates a client for the hosted search API.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serp: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("serp: %w", err)
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    hc,
	}, nil
}

// Search executes one web search request.
func (c *Client) Search(ctx context.Context, q SearchQuery) (*SearchResponse, error) {
	var out SearchResponse
	if err := c.post(ctx, "/search", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Maps executes one local-business search request.
func (c *Client) Maps(ctx context.Context, q MapsQuery) (*MapsResponse, error) {
	var out MapsResponse
	if err := c.post(ctx, "/maps", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Autocomplete fetches suggestion completions for a partial query.
func (c *Client) Autocomplete(ctx context.Context, q AutocompleteQuery) (*AutocompleteResponse, error) {
	var out AutocompleteResponse
	if err := c.post(ctx, "/autocomplete", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serp: encode %s request: %w", endpoint, err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("serp: build %s request: %w", endpoint, err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	if err != nil {
		metrics.RecordSerperRequest(endpoint, "error", time.Since(start))
		return fmt.Errorf("serp: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	metrics.RecordSerperRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for diagnostics, the API returns a JSON
		// message on most failures.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("serp: %s returned status %d: %s", endpoint, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("serp: decode %s response: %w", endpoint, err)
	}
	return nil
}
