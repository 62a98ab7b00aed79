package source

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/sells-group/xgrid/internal/geometry"
)

// styleTables are GeoPackage tables that carry QGIS styling, not features.
var styleTables = map[string]bool{
	"layer_styles":      true,
	"gpkg_layer_styles": true,
}

// TableInfo describes one feature table of a GeoPackage.
type TableInfo struct {
	Name           string
	GeometryColumn string
	GeometryType   string
	Extent         *geometry.Extent
}

// ListLayers returns the feature tables declared in gpkg_contents.
func ListLayers(path string) ([]TableInfo, error) {
	db, err := openGeoPackage(path)
	if err != nil {
		return nil, err
	}
	defer db.Close() //nolint:errcheck
	return listTables(db, path)
}

// LoadGeoPackage reads every feature table of the GeoPackage at path. A
// table that fails to decode is logged and skipped.
func LoadGeoPackage(path string) ([]Layer, error) {
	db, err := openGeoPackage(path)
	if err != nil {
		return nil, err
	}
	defer db.Close() //nolint:errcheck

	tables, err := listTables(db, path)
	if err != nil {
		return nil, err
	}

	var layers []Layer
	for _, t := range tables {
		l, err := loadTable(db, path, t)
		if err != nil {
			zap.L().Warn("source: failed to load geopackage layer",
				zap.String("path", path),
				zap.String("layer", t.Name),
				zap.Error(err),
			)
			continue
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func openGeoPackage(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrapf(err, "source: open geopackage %s", path)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, eris.Wrapf(err, "source: open geopackage %s", path)
	}
	return db, nil
}

func listTables(db *sql.DB, path string) ([]TableInfo, error) {
	rows, err := db.Query(`SELECT c.table_name, g.column_name, g.geometry_type_name,
		c.min_x, c.min_y, c.max_x, c.max_y
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name`)
	if err != nil {
		return nil, eris.Wrapf(err, "source: list layers %s", path)
	}
	defer rows.Close() //nolint:errcheck

	var out []TableInfo
	for rows.Next() {
		var (
			t                      TableInfo
			minX, minY, maxX, maxY sql.NullFloat64
		)
		if err := rows.Scan(&t.Name, &t.GeometryColumn, &t.GeometryType, &minX, &minY, &maxX, &maxY); err != nil {
			return nil, eris.Wrapf(err, "source: scan layer %s", path)
		}
		if styleTables[strings.ToLower(t.Name)] {
			continue
		}
		if minX.Valid && minY.Valid && maxX.Valid && maxY.Valid {
			t.Extent = &geometry.Extent{MinX: minX.Float64, MinY: minY.Float64, MaxX: maxX.Float64, MaxY: maxY.Float64}
		}
		t.GeometryType = normalizeGeometryType(t.GeometryType)
		out = append(out, t)
	}
	return out, eris.Wrapf(rows.Err(), "source: list layers %s", path)
}

func loadTable(db *sql.DB, path string, t TableInfo) (Layer, error) {
	rows, err := db.Query(fmt.Sprintf("SELECT * FROM %s", quoteIdent(t.Name)))
	if err != nil {
		return Layer{}, eris.Wrapf(err, "source: query layer %s", t.Name)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return Layer{}, eris.Wrapf(err, "source: columns of %s", t.Name)
	}
	geomIdx := -1
	for i, c := range cols {
		if strings.EqualFold(c, t.GeometryColumn) {
			geomIdx = i
		}
	}
	if geomIdx < 0 {
		return Layer{}, eris.Errorf("source: layer %s has no column %q", t.Name, t.GeometryColumn)
	}

	layer := Layer{Name: t.Name, Path: path, GeometryType: t.GeometryType}
	var skipped int
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Layer{}, eris.Wrapf(err, "source: scan %s", t.Name)
		}

		blob, _ := values[geomIdx].([]byte)
		g, err := DecodeGeoPackageGeometry(blob)
		if err != nil || g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(cols)-1)
		for i, c := range cols {
			if i == geomIdx {
				continue
			}
			if b, ok := values[i].([]byte); ok {
				props[c] = decodeText(string(b))
				continue
			}
			props[c] = values[i]
		}
		layer.Features = append(layer.Features, geometry.Feature{Geometry: g, Properties: props})
	}
	if err := rows.Err(); err != nil {
		return Layer{}, eris.Wrapf(err, "source: read %s", t.Name)
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped geopackage rows",
			zap.String("layer", t.Name),
			zap.Int("skipped", skipped),
		)
	}
	layer.Extent = layerExtent(t.Extent, layer.Features)
	return layer, nil
}

// GeoPackage binary header layout: "GP", version, flags, srs_id, envelope.
const (
	gpHeaderSize  = 8
	gpFlagEmpty   = 1 << 4
	gpFlagLittle  = 1
	gpEnvelopeBit = 1
)

var envelopeSizes = map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

// DecodeGeoPackageGeometry parses a GeoPackage geometry blob. An empty
// geometry decodes to nil without error.
func DecodeGeoPackageGeometry(blob []byte) (geom.T, error) {
	if len(blob) < gpHeaderSize || blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.New("source: not a geopackage geometry")
	}
	flags := blob[3]
	envelope, ok := envelopeSizes[(flags>>gpEnvelopeBit)&0x07]
	if !ok {
		return nil, eris.Errorf("source: invalid envelope indicator in flags %#x", flags)
	}
	if flags&gpFlagEmpty != 0 {
		return nil, nil
	}
	start := gpHeaderSize + envelope
	if len(blob) <= start {
		return nil, eris.New("source: truncated geopackage geometry")
	}
	g, err := wkb.Unmarshal(blob[start:])
	if err != nil {
		return nil, eris.Wrap(err, "source: decode wkb")
	}
	return g, nil
}

// EncodeGeoPackageGeometry writes g as a GeoPackage blob with no envelope.
func EncodeGeoPackageGeometry(g geom.T, srsID int32) ([]byte, error) {
	body, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "source: encode wkb")
	}
	header := make([]byte, gpHeaderSize, gpHeaderSize+len(body))
	header[0], header[1] = 'G', 'P'
	header[3] = gpFlagLittle
	binary.LittleEndian.PutUint32(header[4:], uint32(srsID))
	return append(header, body...), nil
}

func normalizeGeometryType(s string) string {
	switch strings.ToUpper(s) {
	case "POLYGON":
		return "Polygon"
	case "MULTIPOLYGON":
		return "MultiPolygon"
	case "LINESTRING":
		return "LineString"
	case "MULTILINESTRING":
		return "MultiLineString"
	case "POINT":
		return "Point"
	case "MULTIPOINT":
		return "MultiPoint"
	case "GEOMETRY":
		return "Geometry"
	default:
		return s
	}
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
