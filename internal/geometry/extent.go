package geometry

import (
	"math"

	planar "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
)

// Extent is an axis-aligned bounding rectangle in world units.
type Extent struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Width returns MaxX - MinX.
func (e Extent) Width() float64 { return e.MaxX - e.MinX }

// Height returns MaxY - MinY.
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Center returns the midpoint of the rectangle.
func (e Extent) Center() planar.Point {
	return planar.Point{X: e.MinX + e.Width()/2, Y: e.MinY + e.Height()/2}
}

// Corners returns the four corners counter-clockwise from (MinX, MinY).
func (e Extent) Corners() []planar.Point {
	return []planar.Point{
		{X: e.MinX, Y: e.MinY},
		{X: e.MaxX, Y: e.MinY},
		{X: e.MaxX, Y: e.MaxY},
		{X: e.MinX, Y: e.MaxY},
	}
}

// Union returns the smallest extent covering both.
func (e Extent) Union(o Extent) Extent {
	return Extent{
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// RotatedCorners rotates the four corners rigidly by deg degrees about the
// extent's centre and returns the extent of the result. It is not a
// re-bounding of the original geometry.
func (e Extent) RotatedCorners(deg float64) Extent {
	pivot := e.Center()
	corners := e.Corners()
	for i, c := range corners {
		corners[i] = Rotate(c, deg, pivot)
	}
	out, _ := boundsOf(corners)
	return out
}

// ComputeExtent is the bounding extent tracker: the union of every given
// layer extent, rebuilt from scratch on each call. Nil entries (layers with
// no known extent) are ignored; false means nothing was known.
func ComputeExtent(extents []*Extent) (Extent, bool) {
	var out Extent
	found := false
	for _, e := range extents {
		if e == nil {
			continue
		}
		if !found {
			out, found = *e, true
			continue
		}
		out = out.Union(*e)
	}
	return out, found
}

// ExtentOf measures features with go-geom bounds. Features without geometry
// are ignored.
func ExtentOf(features []Feature) (Extent, bool) {
	b := geom.NewBounds(geom.XY)
	for _, f := range features {
		extend(b, f.Geometry)
	}
	if b.IsEmpty() {
		return Extent{}, false
	}
	return Extent{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)}, true
}

func extend(b *geom.Bounds, g geom.T) {
	switch t := g.(type) {
	case nil:
	case *geom.GeometryCollection:
		for _, child := range t.Geoms() {
			extend(b, child)
		}
	default:
		if len(t.FlatCoords()) > 0 {
			b.Extend(t)
		}
	}
}
