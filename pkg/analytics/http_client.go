package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RemoteError is a non-2xx answer from the BI service.
type RemoteError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("analytics: remote error %d on %s: %s", e.StatusCode, e.Path, e.Body)
}

// HTTPConfig configures the HTTP analytics client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to a remote BI service via REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client capable of hitting live analytics APIs.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ Client = (*HTTPClient)(nil)

// FetchMetric implements MetricClient by calling the remote metrics endpoint.
func (c *HTTPClient) FetchMetric(ctx context.Context, query MetricQuery) (MetricResult, error) {
	var resp MetricResult
	if err := c.do(ctx, http.MethodPost, "/metrics/query", query, &resp); err != nil {
		return MetricResult{}, err
	}
	return resp, nil
}

// FetchSeries implements SeriesClient via the series endpoint.
func (c *HTTPClient) FetchSeries(ctx context.Context, query SeriesQuery) (SeriesResult, error) {
	var resp SeriesResult
	if err := c.do(ctx, http.MethodPost, "/series/query", query, &resp); err != nil {
		return SeriesResult{}, err
	}
	if len(resp.Series) > 0 && len(resp.Labels) == 0 {
		return SeriesResult{}, fmt.Errorf("analytics: series %q returned values without labels", query.Series)
	}
	return resp, nil
}

// FetchTable implements TableClient via the tables endpoint.
func (c *HTTPClient) FetchTable(ctx context.Context, query TableQuery) (TableResult, error) {
	var resp TableResult
	if err := c.do(ctx, http.MethodPost, "/tables/query", query, &resp); err != nil {
		return TableResult{}, err
	}
	for i, row := range resp.Rows {
		if len(row) != len(resp.Columns) {
			return TableResult{}, fmt.Errorf("analytics: table %q row %d has %d cells, want %d", query.Source, i, len(row), len(resp.Columns))
		}
	}
	return resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("analytics: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("analytics: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &RemoteError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("analytics: decode response: %w", err)
	}
	return nil
}
