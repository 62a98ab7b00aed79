package layout

import (
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/xgrid/internal/geometry"
)

// ErrNoFittingLayout means no preset and rotation fits; the resolver falls
// back to the largest preset at 0° and flags the result as possibly clipped.
var ErrNoFittingLayout = eris.New("layout: no preset or rotation fits the data")

// Rotation scan bounds, in whole degrees.
const (
	scanFrom = 1
	scanTo   = 89
)

// Resolver runs the fit search against an ordered list of presets, smallest
// first. The last preset is the fallback.
type Resolver struct {
	k       float64
	presets []Preset
}

// NewResolver validates the cell size and presets.
func NewResolver(k float64, presets ...Preset) (*Resolver, error) {
	if k <= 0 {
		return nil, eris.Errorf("layout: cell size k must be positive, got %v", k)
	}
	if len(presets) == 0 {
		return nil, eris.New("layout: at least one preset is required")
	}
	for _, p := range presets {
		if p.Rows <= 0 || p.Cols <= 0 {
			return nil, eris.Errorf("layout: preset %q has invalid dimensions %dx%d", p.Name, p.Rows, p.Cols)
		}
	}
	return &Resolver{k: k, presets: append([]Preset(nil), presets...)}, nil
}

// K returns the cell size in world units.
func (r *Resolver) K() float64 { return r.k }

// Presets returns a copy of the preset order.
func (r *Resolver) Presets() []Preset { return append([]Preset(nil), r.presets...) }

// Default is the layout used before anything is loaded: first preset, no
// rotation, no extent.
func (r *Resolver) Default() Resolution {
	return Resolution{Config: r.config(r.presets[0], 0, geometry.Extent{}, false)}
}

// Resolve picks the first layout that fits, in strict priority order: for
// each preset, 0°, then 90°, then the first whole angle in 1..89°. The 90°
// and scanned tests rotate the outline about its own centre. An empty
// outline falls through to ResolveExtent.
func (r *Resolver) Resolve(outline geometry.Outline, extent geometry.Extent) Resolution {
	bounds, ok := outline.Bounds()
	if !ok {
		return r.ResolveExtent(extent)
	}
	quarter, _ := outline.RotatedBounds(90)

	for i, p := range r.presets {
		if r.fits(bounds, p) {
			return r.resolved(i, p, 0, extent)
		}
		if r.fits(quarter, p) {
			return r.resolved(i, p, 90, extent)
		}
		if angle, ok := r.scan(outline, p); ok {
			return r.resolved(i, p, angle, extent)
		}
	}

	return r.fallback(extent, "No rotation fits even the %s %s grid; part of the data may be clipped.")
}

// ResolveExtent is the geometry-free path: only the raw extent is known, so
// the 90° test rotates the extent's corners rigidly and no angle scan runs.
func (r *Resolver) ResolveExtent(extent geometry.Extent) Resolution {
	quarter := extent.RotatedCorners(90)
	for i, p := range r.presets {
		if r.fits(extent, p) {
			return r.resolved(i, p, 0, extent)
		}
		if r.fits(quarter, p) {
			return r.resolved(i, p, 90, extent)
		}
	}
	return r.fallback(extent, "The data does not fit the %s %s grid; part of it may be clipped.")
}

func (r *Resolver) scan(outline geometry.Outline, p Preset) (int, bool) {
	for angle := scanFrom; angle <= scanTo; angle++ {
		b, _ := outline.RotatedBounds(float64(angle))
		if r.fits(b, p) {
			return angle, true
		}
	}
	return 0, false
}

// fits is the layout acceptance test: both dimensions within the preset.
func (r *Resolver) fits(b geometry.Extent, p Preset) bool {
	return b.Width() <= float64(p.Cols)*r.k && b.Height() <= float64(p.Rows)*r.k
}

func (r *Resolver) resolved(index int, p Preset, rotation int, extent geometry.Extent) Resolution {
	res := Resolution{Config: r.config(p, rotation, extent, true)}
	switch {
	case rotation != 0:
		res.Advisory = &Advisory{Level: Info, Text: fmt.Sprintf("Rotated %d° to fit the %s %s grid.", rotation, p.Name, p.Orientation)}
	case index > 0:
		res.Advisory = &Advisory{Level: Info, Text: fmt.Sprintf("The data extent is large; switched to the %s %s grid.", p.Name, p.Orientation)}
	}
	return res
}

func (r *Resolver) fallback(extent geometry.Extent, format string) Resolution {
	p := r.presets[len(r.presets)-1]
	cfg := r.config(p, 0, extent, true)
	cfg.MayClip = true
	zap.L().Debug("layout: falling back", zap.String("preset", p.Name), zap.Error(ErrNoFittingLayout))
	return Resolution{
		Config:   cfg,
		Advisory: &Advisory{Level: Warning, Text: fmt.Sprintf(format, p.Name, p.Orientation)},
	}
}

func (r *Resolver) config(p Preset, rotation int, extent geometry.Extent, hasExtent bool) GridConfig {
	return GridConfig{
		Preset:      p.Name,
		Rows:        p.Rows,
		Cols:        p.Cols,
		K:           r.k,
		Orientation: p.Orientation,
		Rotation:    rotation,
		Extent:      extent,
		HasExtent:   hasExtent,
	}
}
