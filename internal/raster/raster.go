// Package raster classifies grid cells as inside or outside a region using
// exact polygon intersection area.
package raster

import (
	"math"
	"sort"

	planar "github.com/ctessum/geom"
	"github.com/rotisserie/eris"

	"github.com/sells-group/xgrid/internal/geometry"
	"github.com/sells-group/xgrid/internal/layout"
)

// Coverage is the fraction of a cell's area the region must cover for the
// cell to count as occupied. The comparison is inclusive.
const Coverage = 0.5

// DefaultCellSize is the on-screen edge length of one cell.
const DefaultCellSize = 25.0

// Cell is a grid coordinate. Rows grow downward, columns rightward.
type Cell struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

// CellSet is an unordered set of cells.
type CellSet map[Cell]struct{}

// NewCellSet builds a set from the given cells.
func NewCellSet(cells ...Cell) CellSet {
	s := make(CellSet, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s CellSet) Contains(c Cell) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the cells in row-major order.
func (s CellSet) Sorted() []Cell {
	out := make([]Cell, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Offset is a free-form pan applied after the world-to-grid transform, in
// grid (screen) units.
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rasterizer maps regions into grid space. Cell size is the on-screen edge
// length; world units per cell come from the GridConfig.
type Rasterizer struct {
	cellSize float64
}

// New returns a Rasterizer for the given on-screen cell size.
func New(cellSize float64) (*Rasterizer, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, eris.Errorf("raster: cell size must be positive, got %v", cellSize)
	}
	return &Rasterizer{cellSize: cellSize}, nil
}

// CellSize returns the on-screen cell edge length.
func (r *Rasterizer) CellSize() float64 { return r.cellSize }

// Project returns the world-to-grid transform for cfg: rotation about the
// centre of the global extent, then a uniform scale of cellSize/k that puts
// the rotated extent's centre on the grid centre, Y flipped, plus pan.
func (r *Rasterizer) Project(cfg layout.GridConfig, pan Offset) func(planar.Point) planar.Point {
	pivot := cfg.Extent.Center()
	deg := float64(cfg.Rotation)

	center := cfg.Extent.RotatedCorners(deg).Center()

	scale := r.cellSize / cfg.K
	gridX := float64(cfg.Cols) * r.cellSize / 2
	gridY := float64(cfg.Rows) * r.cellSize / 2

	return func(p planar.Point) planar.Point {
		q := geometry.Rotate(p, deg, pivot)
		return planar.Point{
			X: gridX + (q.X-center.X)*scale + pan.X,
			Y: gridY - (q.Y-center.Y)*scale + pan.Y,
		}
	}
}

// Rasterize returns every cell whose exact overlap with the region is at
// least half the cell's area. An empty region, or a layout resolved without
// an extent, yields an empty set.
func (r *Rasterizer) Rasterize(region geometry.Region, cfg layout.GridConfig, pan Offset) CellSet {
	cells := CellSet{}
	if region.IsEmpty() || !cfg.HasExtent || cfg.K <= 0 {
		return cells
	}

	scene := region.Map(r.Project(cfg, pan))
	bounds, ok := scene.Bounds()
	if !ok {
		return cells
	}

	threshold := Coverage * r.cellSize * r.cellSize
	poly := scene.Polygon()

	for row := 0; row < cfg.Rows; row++ {
		y0 := float64(row) * r.cellSize
		y1 := y0 + r.cellSize
		if y1 <= bounds.MinY || y0 >= bounds.MaxY {
			continue
		}
		for col := 0; col < cfg.Cols; col++ {
			x0 := float64(col) * r.cellSize
			x1 := x0 + r.cellSize
			if x1 <= bounds.MinX || x0 >= bounds.MaxX {
				continue
			}
			overlap := poly.Intersection(cellPolygon(x0, y0, x1, y1)).(planar.Polygon)
			if len(overlap) == 0 {
				continue
			}
			if overlap.Area() >= threshold {
				cells[Cell{Row: row, Col: col}] = struct{}{}
			}
		}
	}
	return cells
}

// CellAt maps a grid-space point to the cell containing it.
func (r *Rasterizer) CellAt(cfg layout.GridConfig, x, y float64) (Cell, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return Cell{}, false
	}
	c := Cell{
		Row: int(math.Floor(y / r.cellSize)),
		Col: int(math.Floor(x / r.cellSize)),
	}
	if !cfg.Contains(c.Row, c.Col) {
		return Cell{}, false
	}
	return c, true
}

func cellPolygon(x0, y0, x1, y1 float64) planar.Polygon {
	return planar.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}
