package reports

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	layoutSheet   = "Layout"
	elementsSheet = "Elements"
)

// XLSXExporter lays the canvas out on a spreadsheet: one merged, titled range per
// element on the "Layout" sheet and an index row per element on "Elements".
// Elements starting past the sheet bounds appear only on "Elements".
type XLSXExporter struct{}

// Format implements Exporter.
func (XLSXExporter) Format() ExportFormat { return FormatXLSX }

// Export implements Exporter.
func (XLSXExporter) Export(_ context.Context, tpl Template) (Artifact, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", layoutSheet); err != nil {
		return Artifact{}, fmt.Errorf("reports: xlsx rename sheet: %w", err)
	}
	if _, err := f.NewSheet(elementsSheet); err != nil {
		return Artifact{}, fmt.Errorf("reports: xlsx new sheet: %w", err)
	}
	refs, err := writeLayoutSheet(f, tpl)
	if err != nil {
		return Artifact{}, err
	}
	if err := writeElementsSheet(f, tpl, refs); err != nil {
		return Artifact{}, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return Artifact{}, fmt.Errorf("reports: xlsx write %s: %w", tpl.ID, err)
	}
	return Artifact{
		Name:        artifactName(tpl, FormatXLSX),
		Format:      FormatXLSX,
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

// cellRange is an inclusive 1-based rectangle on the layout sheet.
type cellRange struct {
	left, top, right, bottom int
}

func (r cellRange) intersects(o cellRange) bool {
	return r.left <= o.right && o.left <= r.right && r.top <= o.bottom && o.top <= r.bottom
}

// offSheet marks elements whose top-left cell lies past the sheet bounds.
const offSheet = "off-sheet"

// layoutRange returns the sheet range an element covers, clipped to the sheet.
// ok is false when the element starts outside the sheet.
func layoutRange(el Element) (cellRange, bool) {
	// excelize coordinates are 1-based
	r := cellRange{
		left:   el.Position.X + 1,
		top:    el.Position.Y + 1,
		right:  el.Position.X + el.Size.Width,
		bottom: el.Position.Y + el.Size.Height,
	}
	if r.left > excelize.MaxColumns || r.top > excelize.TotalRows {
		return cellRange{}, false
	}
	r.right = min(r.right, excelize.MaxColumns)
	r.bottom = min(r.bottom, excelize.TotalRows)
	return r, true
}

// writeLayoutSheet labels each element on its top-left cell and merges its range.
// A range that intersects an earlier element keeps only its label; labels landing
// in the same visible cell are joined. It returns the layout reference written for each element id.
func writeLayoutSheet(f *excelize.File, tpl Template) (map[string]string, error) {
	refs := make(map[string]string, len(tpl.Elements))
	labels := map[string]string{}
	placed := make([]cellRange, 0, len(tpl.Elements))
	var merged []cellRange
	for _, el := range tpl.Elements {
		r, ok := layoutRange(el)
		if !ok {
			refs[el.ID] = offSheet
			continue
		}
		top, err := excelize.CoordinatesToCellName(r.left, r.top)
		if err != nil {
			return nil, fmt.Errorf("reports: xlsx element %s: %w", el.ID, err)
		}
		refs[el.ID] = top
		mergeable := !overlapsAny(r, placed)
		placed = append(placed, r)
		if mergeable && (r.right > r.left || r.bottom > r.top) {
			bottom, err := excelize.CoordinatesToCellName(r.right, r.bottom)
			if err != nil {
				return nil, fmt.Errorf("reports: xlsx element %s: %w", el.ID, err)
			}
			if err := f.MergeCell(layoutSheet, top, bottom); err != nil {
				return nil, fmt.Errorf("reports: xlsx merge %s: %w", el.ID, err)
			}
			merged = append(merged, r)
			refs[el.ID] = top + ":" + bottom
		}
		label := el.Title
		if label == "" {
			label = string(el.Kind)
		}
		label = fmt.Sprintf("[%s] %s", el.Kind, label)
		// excelize redirects writes inside a merge to its top-left cell
		at := top
		if m, inside := containing(r.left, r.top, merged); inside {
			if at, err = excelize.CoordinatesToCellName(m.left, m.top); err != nil {
				return nil, fmt.Errorf("reports: xlsx element %s: %w", el.ID, err)
			}
		}
		if prev, taken := labels[at]; taken {
			label = prev + "\n" + label
		}
		labels[at] = label
		if err := f.SetCellValue(layoutSheet, at, label); err != nil {
			return nil, fmt.Errorf("reports: xlsx label %s: %w", el.ID, err)
		}
	}
	return refs, nil
}

func containing(col, row int, merged []cellRange) (cellRange, bool) {
	for _, m := range merged {
		if col >= m.left && col <= m.right && row >= m.top && row <= m.bottom {
			return m, true
		}
	}
	return cellRange{}, false
}

func overlapsAny(r cellRange, merged []cellRange) bool {
	for _, m := range merged {
		if r.intersects(m) {
			return true
		}
	}
	return false
}

func writeElementsSheet(f *excelize.File, tpl Template, refs map[string]string) error {
	header := []any{"ID", "Kind", "Title", "X", "Y", "Width", "Height", "Layout"}
	if err := f.SetSheetRow(elementsSheet, "A1", &header); err != nil {
		return fmt.Errorf("reports: xlsx header: %w", err)
	}
	for i, el := range tpl.Elements {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{el.ID, string(el.Kind), el.Title, el.Position.X, el.Position.Y, el.Size.Width, el.Size.Height, refs[el.ID]}
		if err := f.SetSheetRow(elementsSheet, cell, &row); err != nil {
			return fmt.Errorf("reports: xlsx row %s: %w", el.ID, err)
		}
	}
	return nil
}
