package analytics

import (
	"context"
	"errors"

	"github.com/goliatone/go-reports/components/reports"
)

// Provider feeds metric, chart and table elements from an analytics Client.
// Every other kind, and elements without a data source in their config, go to Fallback.
type Provider struct {
	Client   Client
	Fallback reports.DataProvider
	// Range is sent when an element does not set "range" itself.
	Range string
}

var _ reports.DataProvider = (*Provider)(nil)

// NewProvider adapts client into a reports.DataProvider with the mock provider as fallback.
func NewProvider(client Client) *Provider {
	return &Provider{Client: client, Fallback: reports.NewMockDataProvider(nil), Range: "30d"}
}

// Fetch implements reports.DataProvider.
func (p *Provider) Fetch(ctx context.Context, meta reports.ElementContext) (reports.ElementData, error) {
	el := meta.Element
	cfg := el.Config
	rng := configString(cfg, "range", p.Range)
	if p.Client != nil {
		switch el.Kind {
		case reports.KindMetric:
			if metric := configString(cfg, "metric", ""); metric != "" {
				res, err := p.Client.FetchMetric(ctx, MetricQuery{Metric: metric, Range: rng})
				if err != nil {
					return nil, err
				}
				format := res.Format
				if format == "" {
					format = configString(cfg, "format", "number")
				}
				return reports.ElementData{"value": res.Value, "delta": res.Delta, "format": format}, nil
			}
		case reports.KindChart:
			if series := configString(cfg, "series", ""); series != "" {
				res, err := p.Client.FetchSeries(ctx, SeriesQuery{Series: series, Range: rng, Points: configInt(cfg, "points")})
				if err != nil {
					return nil, err
				}
				return reports.ElementData{"labels": res.Labels, "series": res.Series}, nil
			}
		case reports.KindTable:
			if source := configString(cfg, "source", ""); source != "" {
				res, err := p.Client.FetchTable(ctx, TableQuery{Source: source, Columns: configStrings(cfg, "columns"), Limit: configInt(cfg, "rows")})
				if err != nil {
					return nil, err
				}
				return reports.ElementData{"columns": res.Columns, "rows": res.Rows}, nil
			}
		}
	}
	if p.Fallback == nil {
		return nil, errors.New("analytics: no data source for element " + el.ID)
	}
	return p.Fallback.Fetch(ctx, meta)
}

func configString(cfg map[string]any, key, fallback string) string {
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func configInt(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func configStrings(cfg map[string]any, key string) []string {
	switch v := cfg[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
