package analytics

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-reports/components/reports"
)

// MockData seeds deterministic analytics responses for tests or local demos, keyed by
// metric name, series name and table source.
type MockData struct {
	Metrics map[string]MetricResult
	Series  map[string]SeriesResult
	Tables  map[string]TableResult
}

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	data MockData
	mu   sync.RWMutex
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock analytics client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data}
}

// FetchMetric returns the fixture for query.Metric.
func (c *MockClient) FetchMetric(_ context.Context, query MetricQuery) (MetricResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.data.Metrics[query.Metric]
	if !ok {
		return MetricResult{}, fmt.Errorf("analytics: unknown metric %q", query.Metric)
	}
	return res, nil
}

// FetchSeries returns the fixture for query.Series, trimmed to query.Points when set.
func (c *MockClient) FetchSeries(_ context.Context, query SeriesQuery) (SeriesResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.data.Series[query.Series]
	if !ok {
		return SeriesResult{}, fmt.Errorf("analytics: unknown series %q", query.Series)
	}
	return cloneSeries(res, query.Points), nil
}

// FetchTable returns the fixture for query.Source, limited to query.Limit rows when set.
func (c *MockClient) FetchTable(_ context.Context, query TableQuery) (TableResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.data.Tables[query.Source]
	if !ok {
		return TableResult{}, fmt.Errorf("analytics: unknown table %q", query.Source)
	}
	rows := res.Rows
	if query.Limit > 0 && query.Limit < len(rows) {
		rows = rows[:query.Limit]
	}
	out := TableResult{Columns: append([]string(nil), res.Columns...), Rows: make([][]string, len(rows))}
	for i, row := range rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out, nil
}

func cloneSeries(res SeriesResult, points int) SeriesResult {
	labels := res.Labels
	if points > 0 && points < len(labels) {
		labels = labels[len(labels)-points:]
	}
	out := SeriesResult{Labels: append([]string(nil), labels...), Series: make([]reports.ChartSeries, len(res.Series))}
	for i, s := range res.Series {
		values := s.Values
		if points > 0 && points < len(values) {
			values = values[len(values)-points:]
		}
		out.Series[i] = reports.ChartSeries{Name: s.Name, Values: append([]float64(nil), values...)}
	}
	return out
}
