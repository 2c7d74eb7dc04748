package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func exportTemplate() Template {
	return Template{
		ID:           "tpl-9",
		Name:         "Q3 Sales Review!",
		PageSettings: DefaultPageSettings(),
		Elements: []Element{
			{ID: "t", Kind: KindText, Title: "Header", Position: GridPosition{X: 0, Y: 0}, Size: Size{Width: 4, Height: 1}},
			{ID: "m", Kind: KindMetric, Title: "Revenue", Position: GridPosition{X: 1, Y: 2}, Size: Size{Width: 3, Height: 2}},
			{ID: "s", Kind: KindSpacer, Position: GridPosition{X: 6, Y: 6}, Size: Size{Width: 1, Height: 1}},
		},
	}
}

func TestJSONExporterWritesDocument(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	artifact, err := JSONExporter{Now: func() time.Time { return at }}.Export(context.Background(), exportTemplate())
	require.NoError(t, err)
	assert.Equal(t, "q3_sales_review.json", artifact.Name)
	assert.Equal(t, "application/json", artifact.ContentType)

	var doc ExportDocument
	require.NoError(t, json.Unmarshal(artifact.Data, &doc))
	assert.Equal(t, "tpl-9", doc.TemplateID)
	assert.Equal(t, at, doc.ExportedAt)
	require.Len(t, doc.Elements, 3)
	assert.Equal(t, GridPosition{X: 1, Y: 2}, doc.Elements[1].Position)
	assert.Equal(t, PageA4, doc.PageSettings.Size)
}

func TestJSONExporterEmptyTemplate(t *testing.T) {
	artifact, err := JSONExporter{}.Export(context.Background(), Template{ID: "empty"})
	require.NoError(t, err)
	assert.Contains(t, string(artifact.Data), `"elements": []`)
	assert.Equal(t, "empty.json", artifact.Name)
}

func TestXLSXExporterMergesElementRanges(t *testing.T) {
	artifact, err := XLSXExporter{}.Export(context.Background(), exportTemplate())
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, artifact.Format)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(layoutSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "[metric] Revenue", value)

	merges, err := f.GetMergeCells(layoutSheet)
	require.NoError(t, err)
	refs := make([]string, 0, len(merges))
	for _, m := range merges {
		refs = append(refs, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	assert.Contains(t, refs, "A1:D1")
	assert.Contains(t, refs, "B3:D4")
	assert.Len(t, refs, 2)

	spacer, err := f.GetCellValue(layoutSheet, "G7")
	require.NoError(t, err)
	assert.Equal(t, "[spacer] spacer", spacer)

	rows, err := f.GetRows(elementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"m", "metric", "Revenue", "1", "2", "3", "2", "B3:D4"}, rows[2])
}

func TestXLSXExporterKeepsOverlappingTitles(t *testing.T) {
	tpl := Template{
		ID:           "tpl-overlap",
		Name:         "Overlap",
		PageSettings: DefaultPageSettings(),
		Elements: []Element{
			{ID: "a", Kind: KindChart, Title: "Traffic", Position: GridPosition{X: 0, Y: 0}, Size: Size{Width: 4, Height: 4}},
			{ID: "b", Kind: KindMetric, Title: "Signups", Position: GridPosition{X: 2, Y: 2}, Size: Size{Width: 3, Height: 2}},
			{ID: "c", Kind: KindText, Title: "Note", Position: GridPosition{X: 0, Y: 0}, Size: Size{Width: 1, Height: 1}},
			{ID: "d", Kind: KindSpacer, Position: GridPosition{X: 10, Y: 10}, Size: Size{Width: 1, Height: 1}},
			{ID: "e", Kind: KindTable, Title: "Orders", Position: GridPosition{X: 9, Y: 9}, Size: Size{Width: 3, Height: 3}},
		},
	}
	artifact, err := XLSXExporter{}.Export(context.Background(), tpl)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	merges, err := f.GetMergeCells(layoutSheet)
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, "A1", merges[0].GetStartAxis())
	assert.Equal(t, "D4", merges[0].GetEndAxis())

	first, err := f.GetCellValue(layoutSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "[chart] Traffic\n[metric] Signups\n[text] Note", first)

	spacer, err := f.GetCellValue(layoutSheet, "K11")
	require.NoError(t, err)
	assert.Equal(t, "[spacer] spacer", spacer)
	orders, err := f.GetCellValue(layoutSheet, "J10")
	require.NoError(t, err)
	assert.Equal(t, "[table] Orders", orders)

	rows, err := f.GetRows(elementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "A1:D4", rows[1][7])
	assert.Equal(t, "C3", rows[2][7])
	assert.Equal(t, "J10", rows[5][7])
}

func TestXLSXExporterListsOffSheetElements(t *testing.T) {
	tpl := exportTemplate()
	tpl.Elements = append(tpl.Elements,
		Element{ID: "far", Kind: KindTable, Title: "Far", Position: GridPosition{X: 20000, Y: 1}, Size: Size{Width: 2, Height: 2}},
		Element{ID: "edge", Kind: KindText, Title: "Edge", Position: GridPosition{X: excelize.MaxColumns - 1, Y: 0}, Size: Size{Width: 3, Height: 1}},
	)
	artifact, err := XLSXExporter{}.Export(context.Background(), tpl)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(elementsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"far", "table", "Far", "20000", "1", "2", "2", "off-sheet"}, rows[4])
	assert.Equal(t, "XFD1", rows[5][7])

	edge, err := f.GetCellValue(layoutSheet, "XFD1")
	require.NoError(t, err)
	assert.Equal(t, "[text] Edge", edge)
}
