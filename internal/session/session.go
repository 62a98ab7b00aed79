// Package session holds the loaded layers, the resolved grid layout, the
// pan offset and the landing cell, and sequences layout resolution,
// rasterization and aggregation over them.
package session

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/geometry"
	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/source"
	"github.com/sells-group/xgrid/internal/yarding"
)

var (
	// ErrNoArea means no calculation target produced any occupied cell.
	ErrNoArea = eris.New("session: no calculation area; enable a polygon layer as a calculation target")
	// ErrNoLanding means no landing cell is selected.
	ErrNoLanding = eris.New("session: no landing cell selected")
	// ErrNoPolygonLayer means the landing cannot be placed because no
	// calculable polygon layer is loaded.
	ErrNoPolygonLayer = eris.New("session: no polygon layer loaded")
	// ErrLayerIndex means a layer index is out of range.
	ErrLayerIndex = eris.New("session: layer index out of range")
	// ErrNotPolygonal means a non-polygon layer was made a calculation target.
	ErrNotPolygonal = eris.New("session: layer is not a polygon layer")
	// ErrLandingOutOfRange means the requested landing lies outside the grid.
	ErrLandingOutOfRange = eris.New("session: landing cell outside the grid")
)

// Settings are the construction-time constants.
type Settings struct {
	K        float64
	CellSize float64
	Presets  []layout.Preset
}

// DefaultSettings matches the reference deployment: k = 25 m, 25-unit
// cells, A4 then A3.
func DefaultSettings() Settings {
	return Settings{
		K:        layout.DefaultK,
		CellSize: raster.DefaultCellSize,
		Presets:  []layout.Preset{layout.A4, layout.A3},
	}
}

// Layer is a loaded source layer plus its session flags.
type Layer struct {
	source.Layer
	// CalcTarget marks the layer as part of the calculation area. It
	// defaults to true for polygon layers.
	CalcTarget bool
	// Area is the unioned polygon area in world units squared.
	Area float64
}

// Calculable reports whether the layer contributes to the calculation area.
func (l Layer) Calculable() bool {
	return l.Polygonal() && l.CalcTarget
}

// Update reports the outcome of a re-resolution.
type Update struct {
	Resolution layout.Resolution
	// Notify is true when the caller should surface the advisory.
	Notify bool
	// LandingCleared is true when a selected landing was invalidated by a
	// layout change.
	LandingCleared bool
}

// Session is not safe for concurrent use.
type Session struct {
	resolver   *layout.Resolver
	rasterizer *raster.Rasterizer

	layers     []*Layer
	resolution layout.Resolution
	landing    *raster.Cell
	pan        raster.Offset
}

// New builds an empty session on the default layout.
func New(s Settings) (*Session, error) {
	resolver, err := layout.NewResolver(s.K, s.Presets...)
	if err != nil {
		return nil, eris.Wrap(err, "session: resolver")
	}
	rasterizer, err := raster.New(s.CellSize)
	if err != nil {
		return nil, eris.Wrap(err, "session: rasterizer")
	}
	return &Session{
		resolver:   resolver,
		rasterizer: rasterizer,
		resolution: resolver.Default(),
	}, nil
}

// Layers returns the layers top first.
func (s *Session) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	for i, l := range s.layers {
		out[i] = *l
	}
	return out
}

// Resolution returns the current layout.
func (s *Session) Resolution() layout.Resolution { return s.resolution }

// Config returns the current grid configuration.
func (s *Session) Config() layout.GridConfig { return s.resolution.Config }

// Landing returns the selected landing cell.
func (s *Session) Landing() (raster.Cell, bool) {
	if s.landing == nil {
		return raster.Cell{}, false
	}
	return *s.landing, true
}

// Pan returns the current pan offset.
func (s *Session) Pan() raster.Offset { return s.pan }

// CellSize returns the on-screen cell size.
func (s *Session) CellSize() float64 { return s.rasterizer.CellSize() }

// AddLayers pushes each layer onto the top of the stack, so the last one
// given ends up first, then resets the pan and re-resolves the layout.
func (s *Session) AddLayers(layers ...source.Layer) Update {
	for _, l := range layers {
		area := 0.0
		if region, ok := geometry.Union(l.Features); ok {
			area = region.Area()
		}
		entry := &Layer{Layer: l, CalcTarget: l.Polygonal(), Area: area}
		s.layers = append([]*Layer{entry}, s.layers...)
		zap.L().Debug("session: layer added",
			zap.String("layer", l.Name),
			zap.String("geometry_type", l.GeometryType),
			zap.Int("features", len(l.Features)),
		)
	}
	s.pan = raster.Offset{}
	return s.Resolve()
}

// RemoveLayer drops the layer at index and re-resolves.
func (s *Session) RemoveLayer(index int) (Update, error) {
	if err := s.checkIndex(index); err != nil {
		return Update{}, err
	}
	s.layers = append(s.layers[:index], s.layers[index+1:]...)
	return s.Resolve(), nil
}

// MoveLayer moves the layer at from to position to. Stacking order affects
// drawing only, so the layout is not re-resolved.
func (s *Session) MoveLayer(from, to int) error {
	if err := s.checkIndex(from); err != nil {
		return err
	}
	if err := s.checkIndex(to); err != nil {
		return err
	}
	l := s.layers[from]
	s.layers = append(s.layers[:from], s.layers[from+1:]...)
	s.layers = append(s.layers[:to], append([]*Layer{l}, s.layers[to:]...)...)
	return nil
}

// SetCalcTarget toggles whether the layer at index is part of the area.
func (s *Session) SetCalcTarget(index int, target bool) error {
	if err := s.checkIndex(index); err != nil {
		return err
	}
	l := s.layers[index]
	if target && !l.Polygonal() {
		return eris.Wrapf(ErrNotPolygonal, "layer %q is %s", l.Name, l.GeometryType)
	}
	l.CalcTarget = target
	return nil
}

// Resolve recomputes the global extent from scratch, reruns the fit search
// over every layer's vertices, and clears the landing when the grid layout
// changed.
func (s *Session) Resolve() Update {
	previous := s.resolution

	var extents []*geometry.Extent
	var features []geometry.Feature
	for _, l := range s.layers {
		extents = append(extents, l.Extent)
		features = append(features, l.Features...)
	}

	current := s.resolver.Default()
	if extent, ok := geometry.ComputeExtent(extents); ok {
		current = s.resolver.Resolve(geometry.OutlineOf(features), extent)
	}
	s.resolution = current

	u := Update{Resolution: current, Notify: layout.ShouldNotify(previous, current)}
	if !previous.Config.SameLayout(current.Config) && s.landing != nil {
		s.landing = nil
		u.LandingCleared = true
	}

	if u.Notify {
		log := zap.L().With(zap.String("layout", current.Config.String()))
		if current.Advisory.Level == layout.Warning {
			log.Warn(current.Advisory.Text)
		} else {
			log.Info(current.Advisory.Text)
		}
	}
	return u
}

// Region is the union of every calculable layer's polygons.
func (s *Session) Region() (geometry.Region, bool) {
	var features []geometry.Feature
	for _, l := range s.layers {
		if l.Calculable() {
			features = append(features, l.Features...)
		}
	}
	return geometry.Union(features)
}

// Cells rasterizes the calculation area on the current layout.
func (s *Session) Cells() raster.CellSet {
	region, ok := s.Region()
	if !ok {
		return raster.CellSet{}
	}
	return s.rasterizer.Rasterize(region, s.resolution.Config, s.pan)
}

// SetPan moves the data relative to the grid, in grid units.
func (s *Session) SetPan(pan raster.Offset) { s.pan = pan }

// SelectLanding places the landing at (row, col).
func (s *Session) SelectLanding(row, col int) error {
	if !s.hasCalculable() {
		return ErrNoPolygonLayer
	}
	cfg := s.resolution.Config
	if !cfg.Contains(row, col) {
		return eris.Wrapf(ErrLandingOutOfRange, "(%d, %d) in %dx%d grid", row, col, cfg.Rows, cfg.Cols)
	}
	s.landing = &raster.Cell{Row: row, Col: col}
	return nil
}

// SelectLandingAt places the landing at the cell under grid point (x, y).
func (s *Session) SelectLandingAt(x, y float64) (raster.Cell, error) {
	if !s.hasCalculable() {
		return raster.Cell{}, ErrNoPolygonLayer
	}
	c, ok := s.rasterizer.CellAt(s.resolution.Config, x, y)
	if !ok {
		return raster.Cell{}, eris.Wrapf(ErrLandingOutOfRange, "point (%g, %g)", x, y)
	}
	s.landing = &c
	return c, nil
}

// ClearLanding drops the landing selection.
func (s *Session) ClearLanding() { s.landing = nil }

// Calculate aggregates the current calculation area against the landing.
func (s *Session) Calculate() (*yarding.Result, error) {
	cells := s.Cells()
	if len(cells) == 0 {
		return nil, ErrNoArea
	}
	if s.landing == nil {
		return nil, ErrNoLanding
	}
	cfg := s.resolution.Config
	res, err := yarding.Aggregate(cells, *s.landing, cfg.Rows, cfg.Cols, cfg.K)
	if err != nil {
		return nil, eris.Wrap(err, "session: aggregate")
	}
	zap.L().Info("session: calculated yarding distance",
		zap.String("layout", cfg.String()),
		zap.Int("cells", res.TotalDegree),
		zap.Float64("distance", res.FinalDistance),
	)
	return res, nil
}

func (s *Session) hasCalculable() bool {
	for _, l := range s.layers {
		if l.Calculable() {
			return true
		}
	}
	return false
}

func (s *Session) checkIndex(i int) error {
	if i < 0 || i >= len(s.layers) {
		return eris.Wrapf(ErrLayerIndex, "index %d of %d", i, len(s.layers))
	}
	return nil
}
