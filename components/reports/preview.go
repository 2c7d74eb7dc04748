package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Renderer describes the template renderer contract needed by the preview controller.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// TemplateReader loads a template for previewing.
type TemplateReader interface {
	GetTemplate(ctx context.Context, id string) (Template, error)
}

// PreviewOptions wires a PreviewController.
type PreviewOptions struct {
	Templates  TemplateReader
	Provider   DataProvider
	Charts     ChartRenderer
	Renderer   Renderer
	Translator TranslationService
	Template   string
}

// PreviewController renders a report template as an HTML page of absolutely positioned boxes.
type PreviewController struct {
	templates  TemplateReader
	provider   DataProvider
	charts     ChartRenderer
	renderer   Renderer
	translator TranslationService
	template   string
}

// PreviewPage is the view model handed to the HTML template.
type PreviewPage struct {
	ID          string
	Name        string
	Width       int
	Height      int
	Margin      int
	Orientation Orientation
	Size        PageSize
	Elements    []PreviewElement
}

// PreviewElement is an element with pixel geometry and provider data.
type PreviewElement struct {
	Element
	Left      int
	Top       int
	WidthPx   int
	HeightPx  int
	OffPage   bool
	Data      ElementData
	ChartHTML string
	Error     string
}

// NewPreviewController builds a controller. Missing collaborators default to the mock
// data provider, the echarts renderer and "report_preview.html".
func NewPreviewController(opts PreviewOptions) *PreviewController {
	c := &PreviewController{
		templates:  opts.Templates,
		provider:   opts.Provider,
		charts:     opts.Charts,
		renderer:   opts.Renderer,
		translator: opts.Translator,
		template:   opts.Template,
	}
	if c.provider == nil {
		c.provider = NewMockDataProvider(nil)
	}
	if c.charts == nil {
		c.charts = NewEChartsRenderer()
	}
	if c.template == "" {
		c.template = "report_preview.html"
	}
	return c
}

// Page builds the preview view model for templateID.
func (c *PreviewController) Page(ctx context.Context, viewer ViewerContext, templateID string) (PreviewPage, error) {
	if c.templates == nil {
		return PreviewPage{}, ErrMissingStore
	}
	tpl, err := c.templates.GetTemplate(ctx, templateID)
	if err != nil {
		return PreviewPage{}, err
	}
	return c.BuildPage(ctx, viewer, tpl), nil
}

// BuildPage converts grid geometry into pixels and attaches provider data. Elements whose
// provider fails keep rendering with an Error message instead of failing the page.
func (c *PreviewController) BuildPage(ctx context.Context, viewer ViewerContext, tpl Template) PreviewPage {
	settings := tpl.PageSettings.Normalize()
	w, h := settings.Dimensions()
	page := PreviewPage{
		ID:          tpl.ID,
		Name:        tpl.Name,
		Width:       w,
		Height:      h,
		Margin:      settings.Margin,
		Orientation: settings.Orientation,
		Size:        settings.Size,
		Elements:    make([]PreviewElement, 0, len(tpl.Elements)),
	}
	for _, el := range tpl.Elements {
		origin := PixelFromCell(el.Position, CellSize)
		item := PreviewElement{
			Element:  el,
			Left:     settings.Margin + int(origin.X),
			Top:      settings.Margin + int(origin.Y),
			WidthPx:  el.Size.Width * CellSize,
			HeightPx: el.Size.Height * CellSize,
			OffPage:  settings.OffPage(el),
		}
		meta := ElementContext{TemplateID: tpl.ID, Element: el, Viewer: viewer, Translator: c.translator}
		data, err := c.provider.Fetch(ctx, meta)
		if err != nil {
			item.Error = err.Error()
			page.Elements = append(page.Elements, item)
			continue
		}
		item.Data = data
		if el.Kind == KindChart {
			html, err := c.charts.RenderChart(ctx, meta, data)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.ChartHTML = html
			}
		}
		page.Elements = append(page.Elements, item)
	}
	return page
}

// Render writes the HTML preview of templateID to out.
func (c *PreviewController) Render(ctx context.Context, viewer ViewerContext, templateID string, out io.Writer) error {
	if c.renderer == nil {
		return errors.New("reports: preview renderer not configured")
	}
	page, err := c.Page(ctx, viewer, templateID)
	if err != nil {
		return err
	}
	if _, err := c.renderer.Render(c.template, map[string]any{"page": page, "locale": viewer.Locale}, out); err != nil {
		return fmt.Errorf("reports: render preview %s: %w", templateID, err)
	}
	return nil
}
