package reports

import (
	"fmt"
	"sort"
	"sync"
)

var galleryTemplates = []Template{
	{
		ID:          "gallery.executive_summary",
		Name:        "Executive Summary",
		Description: "Headline KPIs with a revenue trend",
		Elements: []Element{
			{ID: "title", Kind: KindText, Title: "Executive Summary", Config: map[string]any{"text": "Executive Summary"}, Position: GridPosition{0, 0}, Size: Size{Width: 15, Height: 1}},
			{ID: "revenue", Kind: KindMetric, Title: "Revenue", Config: map[string]any{"format": "currency"}, Position: GridPosition{0, 1}, Size: Size{Width: 5, Height: 2}},
			{ID: "customers", Kind: KindMetric, Title: "Customers", Config: map[string]any{"format": "number"}, Position: GridPosition{5, 1}, Size: Size{Width: 5, Height: 2}},
			{ID: "margin", Kind: KindMetric, Title: "Margin", Config: map[string]any{"format": "percent"}, Position: GridPosition{10, 1}, Size: Size{Width: 5, Height: 2}},
			{ID: "trend", Kind: KindChart, Title: "Revenue Trend", Config: map[string]any{"type": "line", "series": "revenue", "points": 12}, Position: GridPosition{0, 3}, Size: Size{Width: 15, Height: 6}},
		},
		PageSettings: PageSettings{Size: PageA4, Orientation: Portrait, Margin: defaultMargin},
	},
	{
		ID:          "gallery.sales_performance",
		Name:        "Sales Performance",
		Description: "Regional sales chart, top deals and a region filter",
		Elements: []Element{
			{ID: "region", Kind: KindFilter, Title: "Region", Config: map[string]any{"field": "region", "options": []any{"North", "South", "East", "West"}}, Position: GridPosition{0, 0}, Size: Size{Width: 3, Height: 1}},
			{ID: "by_region", Kind: KindChart, Title: "Sales by Region", Config: map[string]any{"type": "bar", "series": "sales"}, Position: GridPosition{0, 1}, Size: Size{Width: 10, Height: 6}},
			{ID: "share", Kind: KindChart, Title: "Channel Share", Config: map[string]any{"type": "pie", "series": "channel"}, Position: GridPosition{10, 1}, Size: Size{Width: 10, Height: 6}},
			{ID: "deals", Kind: KindTable, Title: "Top Deals", Config: map[string]any{"columns": []any{"Account", "Owner", "Amount"}, "rows": 8}, Position: GridPosition{0, 7}, Size: Size{Width: 20, Height: 6}},
		},
		PageSettings: PageSettings{Size: PageA4, Orientation: Landscape, Margin: defaultMargin},
	},
	{
		ID:          "gallery.kpi_scorecard",
		Name:        "KPI Scorecard",
		Description: "Grid of metric tiles",
		Elements: []Element{
			{ID: "nps", Kind: KindMetric, Title: "NPS", Config: map[string]any{"format": "number"}, Position: GridPosition{0, 0}, Size: Size{Width: 3, Height: 2}},
			{ID: "churn", Kind: KindMetric, Title: "Churn", Config: map[string]any{"format": "percent"}, Position: GridPosition{3, 0}, Size: Size{Width: 3, Height: 2}},
			{ID: "arpu", Kind: KindMetric, Title: "ARPU", Config: map[string]any{"format": "currency"}, Position: GridPosition{6, 0}, Size: Size{Width: 3, Height: 2}},
			{ID: "gap", Kind: KindSpacer, Title: "Spacer", Position: GridPosition{0, 2}, Size: Size{Width: 2, Height: 1}},
			{ID: "notes", Kind: KindText, Title: "Notes", Config: map[string]any{"text": ""}, Position: GridPosition{0, 3}, Size: Size{Width: 9, Height: 2}},
		},
		PageSettings: PageSettings{Size: PageLetter, Orientation: Portrait, Margin: defaultMargin},
	},
}

// Gallery holds predefined templates users can start from.
type Gallery struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewGallery returns a gallery with the built-in templates.
func NewGallery() *Gallery {
	g := NewEmptyGallery()
	for _, tpl := range galleryTemplates {
		_ = g.Add(tpl)
	}
	return g
}

// NewEmptyGallery returns a gallery without templates.
func NewEmptyGallery() *Gallery {
	return &Gallery{templates: map[string]Template{}}
}

// Add validates and stores a copy of tpl, replacing any template with the same id.
func (g *Gallery) Add(tpl Template) error {
	if tpl.ID == "" {
		return errMissingTemplateID
	}
	tpl.PageSettings = tpl.PageSettings.Normalize()
	if err := ValidateTemplate(tpl); err != nil {
		return fmt.Errorf("reports: gallery template %s: %w", tpl.ID, err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.templates[tpl.ID] = cloneTemplate(tpl)
	return nil
}

// LoadManifestDocument adds every template carried by doc.
func (g *Gallery) LoadManifestDocument(doc *ManifestDocument) error {
	if doc == nil {
		return nil
	}
	for _, tpl := range doc.Templates {
		if err := g.Add(tpl); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a copy of the gallery template.
func (g *Gallery) Get(id string) (Template, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	tpl, ok := g.templates[id]
	if !ok {
		return Template{}, false
	}
	return cloneTemplate(tpl), true
}

// List returns copies of all gallery templates sorted by name.
func (g *Gallery) List() []Template {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Template, 0, len(g.templates))
	for _, tpl := range g.templates {
		out = append(out, cloneTemplate(tpl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Instantiate deep-copies a gallery template under a fresh template id and fresh element ids.
func (g *Gallery) Instantiate(id string, ids IDGenerator) (Template, error) {
	src, ok := g.Get(id)
	if !ok {
		return Template{}, fmt.Errorf("%w: gallery %s", ErrTemplateNotFound, id)
	}
	ids = normalizeIDGenerator(ids)
	src.ID = ids.NewID()
	for i := range src.Elements {
		src.Elements[i].ID = ids.NewID()
	}
	return src, nil
}
