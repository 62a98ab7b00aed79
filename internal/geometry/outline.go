package geometry

import (
	planar "github.com/ctessum/geom"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Outline is the vertex cloud of every valid loaded geometry, lines
// included. The bounding extent of a rotated shape equals the bounding
// extent of its rotated vertices, so layout fitting only needs the vertices.
type Outline []planar.Point

// OutlineOf collects the vertices of all features. Polygons contribute their
// repaired rings; unreadable features are skipped.
func OutlineOf(features []Feature) Outline {
	var out Outline
	for i, f := range features {
		pts, err := vertices(f.Geometry)
		if err != nil {
			zap.L().Debug("geometry: outline skipping feature", zap.Int("feature", i), zap.Error(err))
			continue
		}
		out = append(out, pts...)
	}
	return out
}

func vertices(g geom.T) ([]planar.Point, error) {
	switch t := g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		polys, err := Polygons(t)
		if err != nil {
			return nil, err
		}
		var pts []planar.Point
		for _, p := range polys {
			for _, ring := range Repair(p) {
				pts = append(pts, ring...)
			}
		}
		return pts, nil
	case *geom.GeometryCollection:
		var pts []planar.Point
		for _, child := range t.Geoms() {
			cp, err := vertices(child)
			if err != nil {
				return nil, err
			}
			pts = append(pts, cp...)
		}
		return pts, nil
	case nil:
		return nil, ErrInvalidGeometry
	default:
		return flatPoints(g.FlatCoords(), g.Stride())
	}
}

func flatPoints(flat []float64, stride int) ([]planar.Point, error) {
	if stride < 2 {
		return nil, ErrInvalidGeometry
	}
	coords := make([]geom.Coord, 0, len(flat)/stride)
	for i := 0; i+stride <= len(flat); i += stride {
		coords = append(coords, geom.Coord(flat[i:i+stride]))
	}
	return toPath(coords)
}

// Bounds returns the axis-aligned extent of the outline.
func (o Outline) Bounds() (Extent, bool) {
	return boundsOf(o)
}

// Center is the centre of the outline's bounding extent; fitting rotates the
// outline about this point.
func (o Outline) Center() planar.Point {
	e, ok := o.Bounds()
	if !ok {
		return planar.Point{}
	}
	return e.Center()
}

// RotatedBounds is the extent of the outline after rotating it deg degrees
// about its own centre.
func (o Outline) RotatedBounds(deg float64) (Extent, bool) {
	if deg == 0 {
		return o.Bounds()
	}
	pivot := o.Center()
	rotated := make([]planar.Point, len(o))
	for i, p := range o {
		rotated[i] = Rotate(p, deg, pivot)
	}
	return boundsOf(rotated)
}
