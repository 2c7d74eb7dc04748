package analytics

import (
	"context"

	"github.com/goliatone/go-reports/components/reports"
)

// MetricQuery asks for a single KPI value.
type MetricQuery struct {
	Metric string `json:"metric"`
	Range  string `json:"range,omitempty"`
}

// MetricResult is a KPI value and its change over the previous period.
type MetricResult struct {
	Value  float64 `json:"value"`
	Delta  float64 `json:"delta"`
	Format string  `json:"format,omitempty"`
}

// SeriesQuery asks for a labelled time series.
type SeriesQuery struct {
	Series string `json:"series"`
	Range  string `json:"range,omitempty"`
	Points int    `json:"points,omitempty"`
}

// SeriesResult holds chart labels and one or more series.
type SeriesResult struct {
	Labels []string              `json:"labels"`
	Series []reports.ChartSeries `json:"series"`
}

// TableQuery asks for tabular rows from a named source.
type TableQuery struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// TableResult is a header row plus string cells.
type TableResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MetricClient fetches KPI values from upstream BI services.
type MetricClient interface {
	FetchMetric(ctx context.Context, query MetricQuery) (MetricResult, error)
}

// SeriesClient fetches chart series.
type SeriesClient interface {
	FetchSeries(ctx context.Context, query SeriesQuery) (SeriesResult, error)
}

// TableClient fetches table rows.
type TableClient interface {
	FetchTable(ctx context.Context, query TableQuery) (TableResult, error)
}

// Client is a convenience union for services that implement all analytics calls.
type Client interface {
	MetricClient
	SeriesClient
	TableClient
}
