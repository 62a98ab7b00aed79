package source

import (
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/geometry"
)

// LoadShapefile reads every record of a .shp file with its .dbf attributes.
// Records whose shape cannot be converted are skipped.
func LoadShapefile(path string) (Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return Layer{}, eris.Wrapf(err, "source: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = decodeText(f.String())
	}

	layer := Layer{
		Name:         strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Path:         path,
		GeometryType: shapeTypeName(reader.GeometryType),
	}

	var skipped int
	for reader.Next() {
		idx, shape := reader.Shape()
		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}
		props := make(map[string]any, len(names))
		for i, name := range names {
			props[name] = decodeText(reader.Attribute(i))
		}
		props["_record"] = idx
		layer.Features = append(layer.Features, geometry.Feature{Geometry: g, Properties: props})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile records",
			zap.String("layer", layer.Name),
			zap.Int("skipped", skipped),
		)
	}

	var declared *geometry.Extent
	if box := reader.BBox(); box.MaxX >= box.MinX && box.MaxY >= box.MinY && len(layer.Features) > 0 {
		declared = &geometry.Extent{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY}
	}
	layer.Extent = layerExtent(declared, layer.Features)
	return layer, nil
}

func shapeTypeName(t shp.ShapeType) string {
	switch t {
	case shp.POINT, shp.POINTZ, shp.POINTM:
		return "Point"
	case shp.MULTIPOINT, shp.MULTIPOINTZ, shp.MULTIPOINTM:
		return "MultiPoint"
	case shp.POLYLINE, shp.POLYLINEZ, shp.POLYLINEM:
		return "MultiLineString"
	case shp.POLYGON, shp.POLYGONZ, shp.POLYGONM:
		return "MultiPolygon"
	default:
		return "Unknown"
	}
}

// shapeToGeom converts a go-shp shape to go-geom. Z and M values are
// dropped. Unsupported or empty shapes return nil.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PointZ:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PolyLine:
		return lineParts(s.Parts, s.Points)
	case *shp.PolyLineZ:
		return lineParts(s.Parts, s.Points)
	case *shp.Polygon:
		return polygonParts(s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygonParts(s.Parts, s.Points)
	default:
		return nil
	}
}

// split cuts points into the parts delimited by the shapefile part index.
func split(parts []int32, points []shp.Point) [][]float64 {
	out := make([][]float64, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			continue
		}
		flat := make([]float64, 0, 2*(end-start))
		for _, p := range points[start:end] {
			flat = append(flat, p.X, p.Y)
		}
		out = append(out, flat)
	}
	return out
}

func lineParts(parts []int32, points []shp.Point) geom.T {
	mls := geom.NewMultiLineString(geom.XY)
	for i, flat := range split(parts, points) {
		if len(flat) < 4 {
			continue
		}
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("source: skipping malformed linestring part", zap.Int("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// polygonParts groups rings into polygons by winding: shapefile outer rings
// are clockwise, holes counter-clockwise and follow their outer ring. A hole
// with no preceding outer ring is promoted to an outer ring.
func polygonParts(parts []int32, points []shp.Point) geom.T {
	var polys [][][]float64
	for _, flat := range split(parts, points) {
		if len(flat) < 6 {
			continue
		}
		if signedArea(flat) <= 0 || len(polys) == 0 {
			polys = append(polys, [][]float64{flat})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], flat)
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i, rings := range polys {
		poly := geom.NewPolygon(geom.XY)
		for _, flat := range rings {
			if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				zap.L().Debug("source: skipping malformed ring", zap.Int("polygon", i), zap.Error(err))
			}
		}
		if poly.NumLinearRings() == 0 {
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("source: skipping malformed polygon part", zap.Int("polygon", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea is positive for counter-clockwise rings.
func signedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[2*i]*flat[2*j+1] - flat[2*j]*flat[2*i+1]
	}
	return sum / 2
}
