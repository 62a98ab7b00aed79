package geometry

import (
	"math"

	planar "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// ErrInvalidGeometry marks a feature that could not be converted or repaired.
// It is recovered locally: the feature is excluded and the union continues.
var ErrInvalidGeometry = eris.New("geometry: invalid geometry")

// Union merges the polygonal features into one region. Invalid features are
// repaired first; features that are still empty afterwards, or that cannot be
// read at all, are skipped. Non-polygonal features are ignored. The boolean
// is false when no valid polygon remains.
func Union(features []Feature) (Region, bool) {
	var acc planar.Polygon
	var skipped int

	for i, f := range features {
		polys, err := Polygons(f.Geometry)
		if err != nil {
			skipped++
			zap.L().Debug("geometry: skipping feature", zap.Int("feature", i), zap.Error(err))
			continue
		}
		for _, p := range polys {
			repaired := Repair(p)
			if len(repaired) == 0 {
				continue
			}
			acc = acc.Union(repaired).(planar.Polygon)
		}
	}

	if skipped > 0 {
		zap.L().Debug("geometry: union skipped features", zap.Int("skipped", skipped))
	}

	region := Region{poly: acc}
	if region.IsEmpty() {
		return Region{}, false
	}
	return region, true
}

// Polygons converts a go-geom geometry into planar polygons, one per
// go-geom polygon, keeping holes as additional rings. Lines and points yield
// no polygons and no error.
func Polygons(g geom.T) ([]planar.Polygon, error) {
	switch t := g.(type) {
	case nil:
		return nil, eris.Wrap(ErrInvalidGeometry, "missing geometry")
	case *geom.Polygon:
		p, err := polygonRings(t)
		if err != nil {
			return nil, err
		}
		return []planar.Polygon{p}, nil
	case *geom.MultiPolygon:
		out := make([]planar.Polygon, 0, t.NumPolygons())
		for i := 0; i < t.NumPolygons(); i++ {
			p, err := polygonRings(t.Polygon(i))
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case *geom.GeometryCollection:
		var out []planar.Polygon
		for _, child := range t.Geoms() {
			polys, err := Polygons(child)
			if err != nil {
				return nil, err
			}
			out = append(out, polys...)
		}
		return out, nil
	default:
		return nil, nil
	}
}

func polygonRings(p *geom.Polygon) (planar.Polygon, error) {
	if p == nil {
		return nil, eris.Wrap(ErrInvalidGeometry, "nil polygon")
	}
	out := make(planar.Polygon, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		path, err := toPath(p.LinearRing(i).Coords())
		if err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, nil
}

func toPath(coords []geom.Coord) (planar.Path, error) {
	path := make(planar.Path, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, eris.Wrap(ErrInvalidGeometry, "coordinate has fewer than two ordinates")
		}
		x, y := c[0], c[1]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return nil, eris.Wrap(ErrInvalidGeometry, "non-finite coordinate")
		}
		path = append(path, planar.Point{X: x, Y: y})
	}
	return path, nil
}

// Repair normalizes a polygon before it takes part in a union: consecutive
// duplicate vertices are dropped, rings are closed, and rings with fewer than
// three distinct vertices or with every vertex on one line are removed. The
// remaining rings are re-noded by clipping them against a frame that strictly
// contains them, which splits self-intersecting rings into simple ones. Rings
// left with no area are dropped. Returns nil when nothing usable remains.
func Repair(p planar.Polygon) planar.Polygon {
	cleaned := make(planar.Polygon, 0, len(p))
	for _, ring := range p {
		if r := cleanRing(ring); r != nil && !collinear(r) {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}

	noded := renode(cleaned)
	out := make(planar.Polygon, 0, len(noded))
	for _, ring := range noded {
		if ringArea(ring) != 0 {
			out = append(out, ring)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// renode runs p through the full clipping sweep. The frame is larger than
// p's bounds on every side so the sweep never short-circuits and no frame
// edge coincides with a ring edge.
func renode(p planar.Polygon) planar.Polygon {
	b := p.Bounds()
	pad := math.Max(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y)
	if pad == 0 {
		pad = 1
	}
	frame := planar.Polygon{{
		{X: b.Min.X - pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Max.Y + pad},
		{X: b.Min.X - pad, Y: b.Max.Y + pad},
		{X: b.Min.X - pad, Y: b.Min.Y - pad},
	}}
	return p.Intersection(frame).(planar.Polygon)
}

func cleanRing(ring planar.Path) planar.Path {
	out := make(planar.Path, 0, len(ring)+1)
	for _, p := range ring {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		out = append(out, p)
	}
	if n := len(out); n > 1 && out[0] == out[n-1] {
		out = out[:n-1]
	}
	if len(out) < 3 {
		return nil
	}
	return append(out, out[0])
}

// collinear reports whether every vertex of ring lies on one line.
func collinear(ring planar.Path) bool {
	a := ring[0]
	for i := 1; i+1 < len(ring); i++ {
		b, c := ring[i], ring[i+1]
		if (b.X-a.X)*(c.Y-a.Y)-(b.Y-a.Y)*(c.X-a.X) != 0 {
			return false
		}
	}
	return true
}

// ringArea is the shoelace area of a closed ring; positive when the ring runs
// counter-clockwise.
func ringArea(ring planar.Path) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i].X*ring[i+1].Y - ring[i+1].X*ring[i].Y
	}
	return sum / 2
}
