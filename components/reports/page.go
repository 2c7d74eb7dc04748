package reports

import "fmt"

// PageSize enumerates the supported paper sizes.
type PageSize string

const (
	PageA4     PageSize = "A4"
	PageA3     PageSize = "A3"
	PageLetter PageSize = "Letter"
)

// Orientation of the page.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// pageDimensions holds portrait sizes in CSS pixels (96 dpi).
var pageDimensions = map[PageSize][2]int{
	PageA4:     {794, 1123},
	PageA3:     {1123, 1587},
	PageLetter: {816, 1056},
}

const defaultMargin = 20

// PageSettings controls the printable page that hosts the canvas grid.
type PageSettings struct {
	Size        PageSize    `json:"size" yaml:"size"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Margin      int         `json:"margin" yaml:"margin"`
}

// DefaultPageSettings returns A4 portrait with a 20px margin.
func DefaultPageSettings() PageSettings {
	return PageSettings{Size: PageA4, Orientation: Portrait, Margin: defaultMargin}
}

// Normalize fills zero values with defaults.
func (p PageSettings) Normalize() PageSettings {
	if p.Size == "" {
		p.Size = PageA4
	}
	if p.Orientation == "" {
		p.Orientation = Portrait
	}
	return p
}

// Validate rejects unknown sizes/orientations and negative margins.
func (p PageSettings) Validate() error {
	if _, ok := pageDimensions[p.Size]; !ok {
		return fmt.Errorf("%w: unsupported page size %q", ErrInvalidGeometry, p.Size)
	}
	if p.Orientation != Portrait && p.Orientation != Landscape {
		return fmt.Errorf("%w: unsupported orientation %q", ErrInvalidGeometry, p.Orientation)
	}
	if p.Margin < 0 {
		return fmt.Errorf("%w: margin must be non-negative", ErrInvalidGeometry)
	}
	w, h := p.Dimensions()
	if 2*p.Margin >= w || 2*p.Margin >= h {
		return fmt.Errorf("%w: margin %d leaves no printable area", ErrInvalidGeometry, p.Margin)
	}
	return nil
}

// Dimensions returns the page width and height in pixels, honoring orientation.
func (p PageSettings) Dimensions() (int, int) {
	dims, ok := pageDimensions[p.Size]
	if !ok {
		dims = pageDimensions[PageA4]
	}
	if p.Orientation == Landscape {
		return dims[1], dims[0]
	}
	return dims[0], dims[1]
}

// GridBounds returns how many whole cells fit inside the margins.
func (p PageSettings) GridBounds(cellSize int) (cols, rows int) {
	if cellSize <= 0 {
		cellSize = CellSize
	}
	w, h := p.Dimensions()
	usableW := w - 2*p.Margin
	usableH := h - 2*p.Margin
	if usableW < 0 {
		usableW = 0
	}
	if usableH < 0 {
		usableH = 0
	}
	return usableW / cellSize, usableH / cellSize
}

// OffPage reports whether any part of the element falls outside the printable grid.
// Placement is never rejected for this; previews and exports use it as a hint.
func (p PageSettings) OffPage(el Element) bool {
	cols, rows := p.GridBounds(CellSize)
	return el.Position.X+el.Size.Width > cols || el.Position.Y+el.Size.Height > rows
}
