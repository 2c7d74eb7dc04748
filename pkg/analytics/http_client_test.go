package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-reports/components/reports"
)

func TestHTTPClientFetchMetric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics/query" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		var query MetricQuery
		_ = json.NewDecoder(r.Body).Decode(&query)
		if query.Metric != "revenue" || query.Range != "30d" {
			t.Fatalf("unexpected query %+v", query)
		}
		_ = json.NewEncoder(w).Encode(MetricResult{Value: 1250.5, Delta: 3.2, Format: "currency"})
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIKey: "secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.FetchMetric(context.Background(), MetricQuery{Metric: "revenue", Range: "30d"})
	if err != nil {
		t.Fatalf("fetch metric: %v", err)
	}
	if res.Value != 1250.5 || res.Format != "currency" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestHTTPClientFetchTableRejectsRaggedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tables/query" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(TableResult{Columns: []string{"Region", "Sales"}, Rows: [][]string{{"EMEA"}}})
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	if _, err := client.FetchTable(context.Background(), TableQuery{Source: "sales"}); err == nil || !strings.Contains(err.Error(), "row 0") {
		t.Fatalf("expected ragged row error, got %v", err)
	}
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/"})
	_, err := client.FetchSeries(context.Background(), SeriesQuery{Series: "revenue"})
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusBadGateway || remote.Path != "/series/query" {
		t.Fatalf("expected remote error, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("expected body in error, got %v", err)
	}
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestProviderRoutesByKind(t *testing.T) {
	client := NewMockClient(MockData{
		Metrics: map[string]MetricResult{"revenue": {Value: 42, Delta: -1}},
		Series: map[string]SeriesResult{"revenue": {
			Labels: []string{"Jan", "Feb", "Mar"},
			Series: []reports.ChartSeries{{Name: "Revenue", Values: []float64{1, 2, 3}}},
		}},
		Tables: map[string]TableResult{"regions": {Columns: []string{"Region"}, Rows: [][]string{{"EMEA"}, {"APAC"}}}},
	})
	provider := NewProvider(client)
	ctx := context.Background()

	metric, err := provider.Fetch(ctx, reports.ElementContext{Element: reports.Element{Kind: reports.KindMetric, Config: map[string]any{"metric": "revenue", "format": "currency"}}})
	if err != nil || metric["value"] != 42.0 || metric["format"] != "currency" {
		t.Fatalf("unexpected metric %v err=%v", metric, err)
	}

	chart, err := provider.Fetch(ctx, reports.ElementContext{Element: reports.Element{Kind: reports.KindChart, Config: map[string]any{"series": "revenue", "points": 2.0}}})
	if err != nil {
		t.Fatalf("chart fetch: %v", err)
	}
	if labels := chart["labels"].([]string); len(labels) != 2 || labels[0] != "Feb" {
		t.Fatalf("expected trimmed labels, got %v", labels)
	}

	table, err := provider.Fetch(ctx, reports.ElementContext{Element: reports.Element{Kind: reports.KindTable, Config: map[string]any{"source": "regions", "rows": 1}}})
	if err != nil || len(table["rows"].([][]string)) != 1 {
		t.Fatalf("unexpected table %v err=%v", table, err)
	}

	text, err := provider.Fetch(ctx, reports.ElementContext{Element: reports.Element{Kind: reports.KindText, Title: "Intro"}})
	if err != nil || text["text"] != "Intro" {
		t.Fatalf("expected fallback text data, got %v err=%v", text, err)
	}

	if _, err := provider.Fetch(ctx, reports.ElementContext{Element: reports.Element{Kind: reports.KindMetric, Config: map[string]any{"metric": "churn"}}}); err == nil {
		t.Fatalf("expected unknown metric error")
	}
}

func TestProviderWithoutFallback(t *testing.T) {
	provider := &Provider{}
	if _, err := provider.Fetch(context.Background(), reports.ElementContext{Element: reports.Element{ID: "x", Kind: reports.KindSpacer}}); err == nil {
		t.Fatalf("expected error without client or fallback")
	}
}
