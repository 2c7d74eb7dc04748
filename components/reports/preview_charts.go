package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// ChartSeries is one legend entry of a chart preview.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// ChartRenderer turns chart element data into embeddable HTML.
type ChartRenderer interface {
	RenderChart(ctx context.Context, meta ElementContext, data ElementData) (string, error)
}

// EChartsRenderer renders chart previews with go-echarts.
type EChartsRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
}

// EChartsOption customizes an EChartsRenderer.
type EChartsOption func(*EChartsRenderer)

// WithChartCache injects a render cache. Nil disables caching.
func WithChartCache(cache RenderCache) EChartsOption {
	return func(r *EChartsRenderer) { r.cache = cache }
}

// WithChartTheme sets the echarts theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsOption {
	return func(r *EChartsRenderer) { r.theme = theme }
}

// WithChartAssetsHost points the echarts script tags at a different host.
func WithChartAssetsHost(host string) EChartsOption {
	return func(r *EChartsRenderer) { r.assetsHost = host }
}

// NewEChartsRenderer builds a renderer with a five minute cache by default.
func NewEChartsRenderer(options ...EChartsOption) *EChartsRenderer {
	r := &EChartsRenderer{
		cache: NewChartCache(5 * time.Minute),
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// RenderChart implements ChartRenderer. The chart type comes from the element config (bar by default).
func (r *EChartsRenderer) RenderChart(ctx context.Context, meta ElementContext, data ElementData) (string, error) {
	el := meta.Element
	chartType := strings.ToLower(stringValue(el.Config["type"], "bar"))
	labels := stringSliceValue(data["labels"])
	series, _ := data["series"].([]ChartSeries)
	if len(series) == 0 {
		return "", fmt.Errorf("reports: chart %s has no series", el.ID)
	}
	title := el.Title
	if meta.Translator != nil {
		key := fmt.Sprintf("reports.element.%s.title", el.ID)
		title = translateOrFallback(ctx, meta.Translator, key, meta.Viewer.Locale, el.Title)
	}
	height := fmt.Sprintf("%dpx", el.Size.Height*CellSize)
	width := fmt.Sprintf("%dpx", el.Size.Width*CellSize)

	render := func() (string, error) {
		return r.render(chartType, title, width, height, labels, series)
	}
	if r.cache == nil {
		return render()
	}
	key := fmt.Sprintf("%s:%s:%s", el.ID, chartType, configHash(map[string]any{
		"config": el.Config,
		"title":  title,
		"size":   width + "x" + height,
		"labels": labels,
		"series": series,
	}))
	return r.cache.GetOrRender(meta.TemplateID, key, render)
}

func (r *EChartsRenderer) render(chartType, title, width, height string, labels []string, series []ChartSeries) (string, error) {
	global := r.globalOptions(title, width, height)
	switch chartType {
	case "bar":
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(labels)
		for _, s := range series {
			bar.AddSeries(s.Name, toBarData(labels, s.Values))
		}
		return renderChart(bar)
	case "line":
		line := charts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(labels)
		for _, s := range series {
			line.AddSeries(s.Name, toLineData(labels, s.Values))
		}
		line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
		return renderChart(line)
	case "pie":
		pie := charts.NewPie()
		pie.SetGlobalOptions(global...)
		for _, s := range series {
			pie.AddSeries(s.Name, toPieData(labels, s.Values))
		}
		return renderChart(pie)
	default:
		return "", fmt.Errorf("reports: unsupported chart type %q", chartType)
	}
}

func (r *EChartsRenderer) globalOptions(title, width, height string) []charts.GlobalOpts {
	initOpts := opts.Initialization{Theme: r.theme, Width: width, Height: height}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("Item %d", i+1)
}

func toBarData(labels []string, values []float64) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Name: labelAt(labels, i), Value: v}
	}
	return out
}

func toLineData(labels []string, values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Name: labelAt(labels, i), Value: v}
	}
	return out
}

func toPieData(labels []string, values []float64) []opts.PieData {
	out := make([]opts.PieData, len(values))
	for i, v := range values {
		out[i] = opts.PieData{Name: labelAt(labels, i), Value: v}
	}
	return out
}
