package reports

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// DataProvider fetches the data an element needs to render a preview.
type DataProvider interface {
	Fetch(ctx context.Context, meta ElementContext) (ElementData, error)
}

// DataProviderFunc adapts a function into a DataProvider.
type DataProviderFunc func(ctx context.Context, meta ElementContext) (ElementData, error)

// Fetch implements DataProvider.
func (f DataProviderFunc) Fetch(ctx context.Context, meta ElementContext) (ElementData, error) {
	return f(ctx, meta)
}

// ElementContext contains the metadata handed to providers.
type ElementContext struct {
	TemplateID string
	Element    Element
	Viewer     ViewerContext
	Translator TranslationService
}

// ElementData is an opaque payload passed to preview templates.
type ElementData map[string]any

// MockDataProvider produces sample values for every element kind. All randomness
// comes from the injected source, so a fixed seed yields identical previews.
type MockDataProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockDataProvider builds a provider over src. A nil src uses a PCG seeded with zeros.
func NewMockDataProvider(src rand.Source) *MockDataProvider {
	if src == nil {
		src = rand.NewPCG(0, 0)
	}
	return &MockDataProvider{rng: rand.New(src)}
}

// NewSeededMockDataProvider is a shortcut for a PCG source seeded with seed.
func NewSeededMockDataProvider(seed uint64) *MockDataProvider {
	return NewMockDataProvider(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var sampleLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Fetch implements DataProvider.
func (p *MockDataProvider) Fetch(_ context.Context, meta ElementContext) (ElementData, error) {
	el := meta.Element
	p.mu.Lock()
	defer p.mu.Unlock()
	switch el.Kind {
	case KindMetric:
		value := p.round(p.rng.Float64() * 10000)
		delta := p.round(p.rng.Float64()*20 - 10)
		return ElementData{"value": value, "delta": delta, "format": stringValue(el.Config["format"], "number")}, nil
	case KindChart:
		points := intValue(el.Config["points"], 6)
		if points < 1 || points > len(sampleLabels) {
			points = 6
		}
		values := make([]float64, points)
		for i := range values {
			values[i] = p.round(p.rng.Float64() * 1000)
		}
		return ElementData{
			"labels": append([]string(nil), sampleLabels[:points]...),
			"series": []ChartSeries{{Name: stringValue(el.Config["series"], el.Title), Values: values}},
		}, nil
	case KindTable:
		columns := stringSliceValue(el.Config["columns"])
		if len(columns) == 0 {
			columns = []string{"Name", "Value"}
		}
		n := intValue(el.Config["rows"], 5)
		rows := make([][]string, n)
		for r := range rows {
			row := make([]string, len(columns))
			for c := range columns {
				if c == 0 {
					row[c] = fmt.Sprintf("Row %d", r+1)
					continue
				}
				row[c] = fmt.Sprintf("%.0f", p.rng.Float64()*1000)
			}
			rows[r] = row
		}
		return ElementData{"columns": columns, "rows": rows}, nil
	case KindText:
		return ElementData{"text": stringValue(el.Config["text"], el.Title)}, nil
	case KindFilter:
		return ElementData{"field": stringValue(el.Config["field"], ""), "options": stringSliceValue(el.Config["options"])}, nil
	case KindSpacer:
		return ElementData{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, el.Kind)
	}
}

func (p *MockDataProvider) round(v float64) float64 {
	return math.Round(v*100) / 100
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func stringSliceValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intValue(v any, fallback int) int {
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return fallback
	}
}
