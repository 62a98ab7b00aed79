package source

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/xgrid/internal/geometry"
)

// LoadGeoJSON reads a FeatureCollection file.
func LoadGeoJSON(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layer{}, eris.Wrapf(err, "source: read %s", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	l, err := DecodeGeoJSON(name, data)
	if err != nil {
		return Layer{}, err
	}
	l.Path = path
	return l, nil
}

// DecodeGeoJSON decodes a FeatureCollection into a layer. Features without
// geometry are dropped. The layer's geometry type is the common type of its
// features; mixed polygon kinds widen to "MultiPolygon" and any other mix to
// "Geometry".
func DecodeGeoJSON(name string, data []byte) (Layer, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return Layer{}, eris.Wrapf(err, "source: decode geojson %s", name)
	}

	layer := Layer{Name: name}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		layer.Features = append(layer.Features, geometry.Feature{Geometry: f.Geometry, Properties: f.Properties})
		t := typeName(f.Geometry)
		switch layer.GeometryType {
		case "", t:
			layer.GeometryType = t
		default:
			if strings.Contains(layer.GeometryType, "Polygon") && strings.Contains(t, "Polygon") {
				layer.GeometryType = "MultiPolygon"
			} else {
				layer.GeometryType = "Geometry"
			}
		}
	}
	layer.Extent = layerExtent(nil, layer.Features)
	return layer, nil
}

func typeName(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return "Point"
	case *geom.MultiPoint:
		return "MultiPoint"
	case *geom.LineString:
		return "LineString"
	case *geom.MultiLineString:
		return "MultiLineString"
	case *geom.Polygon:
		return "Polygon"
	case *geom.MultiPolygon:
		return "MultiPolygon"
	default:
		return "Geometry"
	}
}
