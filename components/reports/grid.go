package reports

import (
	"fmt"
	"math"
)

// CellSize is the edge of a canvas grid cell in pixels. It is fixed for every template.
const CellSize = 50

// MaxGridCell is the largest row or column index a position may hold.
const MaxGridCell = math.MaxInt32

// PixelPoint is a drop coordinate relative to the canvas origin.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GridPosition addresses a grid cell. Both coordinates are non-negative.
type GridPosition struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Offset returns the position shifted by dx, dy cells, saturating at MaxGridCell.
func (p GridPosition) Offset(dx, dy int) GridPosition {
	return GridPosition{X: clampCell(p.X + dx), Y: clampCell(p.Y + dy)}
}

// Validate checks the non-negative invariant and the MaxGridCell bound.
func (p GridPosition) Validate() error {
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("%w: position (%d,%d) must be non-negative", ErrInvalidGeometry, p.X, p.Y)
	}
	if p.X > MaxGridCell || p.Y > MaxGridCell {
		return fmt.Errorf("%w: position (%d,%d) exceeds %d", ErrInvalidGeometry, p.X, p.Y, MaxGridCell)
	}
	return nil
}

// Size is an element footprint in grid cells, at least 1x1.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Validate checks the 1x1 minimum.
func (s Size) Validate() error {
	if s.Width < 1 || s.Height < 1 {
		return fmt.Errorf("%w: size %dx%d must be at least 1x1", ErrInvalidGeometry, s.Width, s.Height)
	}
	return nil
}

// CellFromPixel maps a pixel coordinate to its grid cell by flooring each axis
// independently. Points left of or above the origin land on row/column 0 and
// points beyond the last addressable cell land on MaxGridCell.
func CellFromPixel(p PixelPoint, cellSize int) GridPosition {
	if cellSize <= 0 {
		cellSize = CellSize
	}
	return GridPosition{
		X: floorCell(p.X, cellSize),
		Y: floorCell(p.Y, cellSize),
	}
}

// PixelFromCell returns the top-left pixel of a grid cell.
func PixelFromCell(pos GridPosition, cellSize int) PixelPoint {
	if cellSize <= 0 {
		cellSize = CellSize
	}
	return PixelPoint{X: float64(pos.X * cellSize), Y: float64(pos.Y * cellSize)}
}

// ValidDrop rejects infinite drop coordinates.
func ValidDrop(p PixelPoint) error {
	if math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return fmt.Errorf("%w: drop point (%v,%v) is not finite", ErrInvalidGeometry, p.X, p.Y)
	}
	return nil
}

func floorCell(v float64, cellSize int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	q := math.Floor(v / float64(cellSize))
	if q >= MaxGridCell {
		return MaxGridCell
	}
	return int(q)
}

func clampCell(v int) int {
	switch {
	case v < 0:
		return 0
	case v > MaxGridCell:
		return MaxGridCell
	}
	return v
}
