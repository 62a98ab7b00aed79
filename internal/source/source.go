// Package source decodes vector files (shapefile, GeoPackage, GeoJSON) into
// layers of go-geom features.
package source

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/xgrid/internal/geometry"
)

// ErrUnsupportedFormat is returned for file extensions no loader handles.
var ErrUnsupportedFormat = eris.New("source: unsupported file format")

// maxConcurrentFiles bounds parallel file decoding.
const maxConcurrentFiles = 4

// Layer is one decoded feature table.
type Layer struct {
	Name         string
	Path         string
	GeometryType string
	Features     []geometry.Feature
	// Extent is nil when the source declares none and no feature has
	// coordinates.
	Extent *geometry.Extent
}

// Polygonal reports whether the layer's declared geometry type is a polygon
// type, which makes it eligible as a calculation target.
func (l Layer) Polygonal() bool {
	return strings.Contains(l.GeometryType, "Polygon")
}

// Open loads every layer in path, choosing the decoder by extension.
func Open(path string) ([]Layer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		l, err := LoadShapefile(path)
		if err != nil {
			return nil, err
		}
		return []Layer{l}, nil
	case ".gpkg":
		return LoadGeoPackage(path)
	case ".geojson", ".json":
		l, err := LoadGeoJSON(path)
		if err != nil {
			return nil, err
		}
		return []Layer{l}, nil
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "source: %s", path)
	}
}

// LoadAll opens every path concurrently and returns the layers in path
// order. A file that fails is logged and skipped; an error is returned only
// when the context is cancelled or nothing loaded at all.
func LoadAll(ctx context.Context, paths []string) ([]Layer, error) {
	results := make([][]Layer, len(paths))
	var (
		mu       sync.Mutex
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	for i, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			layers, err := Open(path)
			if err != nil {
				zap.L().Warn("source: failed to load file", zap.String("path", path), zap.Error(err))
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
			results[i] = layers
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "source: load files")
	}

	var out []Layer
	for _, layers := range results {
		out = append(out, layers...)
	}
	if len(out) == 0 && len(failures) > 0 {
		return nil, eris.Wrapf(failures[0], "source: no layers loaded from %d file(s)", len(paths))
	}
	return out, nil
}

func layerExtent(declared *geometry.Extent, features []geometry.Feature) *geometry.Extent {
	if declared != nil {
		return declared
	}
	if e, ok := geometry.ExtentOf(features); ok {
		return &e
	}
	return nil
}
