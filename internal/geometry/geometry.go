// Package geometry turns decoded vector features into the canonical planar
// region used for cell classification and tracks the bounding extent of
// everything loaded.
package geometry

import (
	"math"

	planar "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
)

// Feature is one decoded vector record: a go-geom geometry plus its
// attribute values.
type Feature struct {
	Geometry   geom.T
	Properties map[string]any
}

// Region is a repaired, unioned polygonal area. The zero value is empty.
type Region struct {
	poly planar.Polygon
}

// NewRegion wraps an already-valid polygon. Callers holding raw geometry
// should go through Union instead.
func NewRegion(p planar.Polygon) Region {
	return Region{poly: p}
}

// Polygon returns the underlying rings.
func (r Region) Polygon() planar.Polygon {
	return r.poly
}

// IsEmpty reports whether the region covers no area.
func (r Region) IsEmpty() bool {
	return len(r.poly) == 0 || r.poly.Area() == 0
}

// Area returns the covered area with holes subtracted.
func (r Region) Area() float64 {
	if len(r.poly) == 0 {
		return 0
	}
	return r.poly.Area()
}

// Bounds returns the axis-aligned extent of the region.
func (r Region) Bounds() (Extent, bool) {
	var pts []planar.Point
	for _, ring := range r.poly {
		pts = append(pts, ring...)
	}
	return boundsOf(pts)
}

// Map applies fn to every vertex and returns the transformed region.
func (r Region) Map(fn func(planar.Point) planar.Point) Region {
	out := make(planar.Polygon, len(r.poly))
	for i, ring := range r.poly {
		path := make(planar.Path, len(ring))
		for j, p := range ring {
			path[j] = fn(p)
		}
		out[i] = path
	}
	return Region{poly: out}
}

// Rotate turns p counter-clockwise by deg degrees about pivot. Sine and
// cosine values within rounding noise of zero are snapped to zero so that
// quarter turns stay exact.
func Rotate(p planar.Point, deg float64, pivot planar.Point) planar.Point {
	if deg == 0 {
		return p
	}
	cos, sin := rotationTerms(deg)
	dx, dy := p.X-pivot.X, p.Y-pivot.Y
	return planar.Point{
		X: dx*cos - dy*sin + pivot.X,
		Y: dx*sin + dy*cos + pivot.Y,
	}
}

func rotationTerms(deg float64) (cos, sin float64) {
	theta := deg * math.Pi / 180
	cos, sin = math.Cos(theta), math.Sin(theta)
	if math.Abs(cos) < 2.5e-16 {
		cos = 0
	}
	if math.Abs(sin) < 2.5e-16 {
		sin = 0
	}
	return cos, sin
}

func boundsOf(pts []planar.Point) (Extent, bool) {
	if len(pts) == 0 {
		return Extent{}, false
	}
	e := Extent{MinX: pts[0].X, MinY: pts[0].Y, MaxX: pts[0].X, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		e.MinX = math.Min(e.MinX, p.X)
		e.MinY = math.Min(e.MinY, p.Y)
		e.MaxX = math.Max(e.MaxX, p.X)
		e.MaxY = math.Max(e.MaxY, p.Y)
	}
	return e, true
}
