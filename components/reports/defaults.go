package reports

var defaultPaletteEntries = []PaletteEntry{
	{
		Kind:          KindChart,
		Name:          "Chart",
		NameLocalized: map[string]string{"es": "Gráfico"},
		Description:   "Bar, line or pie chart over a data series",
		Category:      "visualization",
		DefaultTitle:  "New Chart",
		DefaultConfig: map[string]any{"type": "bar", "series": "revenue"},
		DefaultSize:   Size{Width: 6, Height: 4},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type":   map[string]any{"type": "string", "enum": []string{"bar", "line", "pie"}},
				"series": map[string]any{"type": "string"},
				"points": map[string]any{"type": "integer", "minimum": 1, "maximum": 24},
			},
		},
	},
	{
		Kind:          KindTable,
		Name:          "Table",
		NameLocalized: map[string]string{"es": "Tabla"},
		Description:   "Tabular rows with configurable columns",
		Category:      "visualization",
		DefaultTitle:  "New Table",
		DefaultConfig: map[string]any{"columns": []any{"Name", "Value"}, "rows": 5},
		DefaultSize:   Size{Width: 6, Height: 4},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"columns": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"rows":    map[string]any{"type": "integer", "minimum": 1, "maximum": 100},
			},
		},
	},
	{
		Kind:          KindMetric,
		Name:          "Metric",
		NameLocalized: map[string]string{"es": "Métrica"},
		Description:   "Single KPI value with optional comparison",
		Category:      "visualization",
		DefaultTitle:  "New Metric",
		DefaultConfig: map[string]any{"format": "number"},
		DefaultSize:   Size{Width: 3, Height: 2},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{"type": "string", "enum": []string{"number", "currency", "percent"}},
				"unit":   map[string]any{"type": "string"},
			},
		},
	},
	{
		Kind:          KindText,
		Name:          "Text",
		NameLocalized: map[string]string{"es": "Texto"},
		Description:   "Static heading or paragraph",
		Category:      "content",
		DefaultTitle:  "Text",
		DefaultConfig: map[string]any{"text": ""},
		DefaultSize:   Size{Width: 4, Height: 1},
		Schema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
	},
	{
		Kind:          KindFilter,
		Name:          "Filter",
		NameLocalized: map[string]string{"es": "Filtro"},
		Description:   "Interactive filter bound to a field",
		Category:      "controls",
		DefaultTitle:  "Filter",
		DefaultConfig: map[string]any{"field": ""},
		DefaultSize:   Size{Width: 3, Height: 1},
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"field":   map[string]any{"type": "string"},
				"options": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
		},
	},
	{
		Kind:          KindSpacer,
		Name:          "Spacer",
		NameLocalized: map[string]string{"es": "Espaciador"},
		Description:   "Empty block used to reserve space",
		Category:      "layout",
		DefaultTitle:  "Spacer",
		DefaultSize:   Size{Width: 2, Height: 1},
	},
}

// DefaultPaletteEntries returns copies of the built-in palette entries.
func DefaultPaletteEntries() []PaletteEntry {
	out := make([]PaletteEntry, len(defaultPaletteEntries))
	for i, entry := range defaultPaletteEntries {
		entry.DefaultConfig = cloneConfig(entry.DefaultConfig)
		out[i] = entry
	}
	return out
}

// DefaultPaletteEntry returns a copy of the built-in entry for kind.
func DefaultPaletteEntry(kind ElementKind) (PaletteEntry, bool) {
	for _, entry := range defaultPaletteEntries {
		if entry.Kind == kind {
			entry.DefaultConfig = cloneConfig(entry.DefaultConfig)
			return entry, true
		}
	}
	return PaletteEntry{}, false
}
