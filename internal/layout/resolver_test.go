package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xgrid/internal/geometry"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultK, A4, A3)
	require.NoError(t, err)
	return r
}

// box returns the outline of a w×h rectangle centred on the origin.
func box(w, h float64) (geometry.Outline, geometry.Extent) {
	o := geometry.Outline{
		{X: -w / 2, Y: -h / 2},
		{X: w / 2, Y: -h / 2},
		{X: w / 2, Y: h / 2},
		{X: -w / 2, Y: h / 2},
	}
	e, _ := o.Bounds()
	return o, e
}

func TestNewResolver_Validation(t *testing.T) {
	_, err := NewResolver(0, A4)
	assert.Error(t, err)

	_, err = NewResolver(25)
	assert.Error(t, err)

	_, err = NewResolver(25, Preset{Name: "bad", Rows: 0, Cols: 3})
	assert.Error(t, err)
}

func TestResolve_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		w, h     float64
		preset   string
		rotation int
		advisory bool
	}{
		{name: "fits A4 upright", w: 700, h: 1000, preset: "A4", rotation: 0},
		{name: "exactly the A4 grid", w: 750, h: 1125, preset: "A4", rotation: 0},
		{name: "A4 after quarter turn", w: 1000, h: 700, preset: "A4", rotation: 90, advisory: true},
		{name: "A4 after scanned rotation", w: 1150, h: 150, preset: "A4", rotation: 58, advisory: true},
		{name: "A3 upright", w: 1500, h: 1000, preset: "A3", rotation: 0, advisory: true},
		{name: "A3 after quarter turn", w: 1000, h: 1500, preset: "A3", rotation: 90, advisory: true},
		{name: "A3 after scanned rotation", w: 1900, h: 100, preset: "A3", rotation: 20, advisory: true},
	}

	r := newResolver(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outline, extent := box(tt.w, tt.h)
			res := r.Resolve(outline, extent)

			assert.Equal(t, tt.preset, res.Config.Preset)
			assert.Equal(t, tt.rotation, res.Config.Rotation)
			assert.False(t, res.Config.MayClip)
			assert.NoError(t, res.Err())
			assert.Equal(t, tt.advisory, res.Advisory != nil)
			if res.Advisory != nil {
				assert.Equal(t, Info, res.Advisory.Level)
			}
		})
	}
}

func TestResolve_PresetDimensions(t *testing.T) {
	r := newResolver(t)

	small, se := box(100, 100)
	res := r.Resolve(small, se)
	assert.Equal(t, 45, res.Config.Rows)
	assert.Equal(t, 30, res.Config.Cols)
	assert.Equal(t, Portrait, res.Config.Orientation)
	assert.Equal(t, se, res.Config.Extent)
	assert.True(t, res.Config.HasExtent)

	large, le := box(1500, 1000)
	res = r.Resolve(large, le)
	assert.Equal(t, 45, res.Config.Rows)
	assert.Equal(t, 73, res.Config.Cols)
	assert.Equal(t, Landscape, res.Config.Orientation)
}

func TestResolve_ScanPicksFirstFittingAngle(t *testing.T) {
	r := newResolver(t)
	outline, extent := box(1150, 150)

	res := r.Resolve(outline, extent)
	require.Equal(t, "A4", res.Config.Preset)
	angle := res.Config.Rotation

	fitsAt := func(deg int) bool {
		b, _ := outline.RotatedBounds(float64(deg))
		return b.Width() <= 30*DefaultK && b.Height() <= 45*DefaultK
	}
	assert.True(t, fitsAt(angle))
	for deg := 1; deg < angle; deg++ {
		assert.False(t, fitsAt(deg), "angle %d should not fit", deg)
	}
}

func TestResolve_SquareNeverRotatesWhenUprightFits(t *testing.T) {
	r := newResolver(t)
	for _, side := range []float64{10, 300, 700, 750} {
		outline, extent := box(side, side)
		res := r.Resolve(outline, extent)
		assert.Equal(t, "A4", res.Config.Preset)
		assert.Equal(t, 0, res.Config.Rotation)
		assert.Nil(t, res.Advisory)
	}
}

func TestResolve_FallbackIsDeterministic(t *testing.T) {
	r := newResolver(t)
	outline, extent := box(2000, 2000)

	first := r.Resolve(outline, extent)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, r.Resolve(outline, extent))
	}

	assert.Equal(t, "A3", first.Config.Preset)
	assert.Equal(t, Landscape, first.Config.Orientation)
	assert.Equal(t, 0, first.Config.Rotation)
	assert.True(t, first.Config.MayClip)
	require.NotNil(t, first.Advisory)
	assert.Equal(t, Warning, first.Advisory.Level)
	assert.ErrorIs(t, first.Err(), ErrNoFittingLayout)
}

func TestResolve_Idempotent(t *testing.T) {
	r := newResolver(t)
	outline := geometry.Outline{
		{X: 0, Y: 0}, {X: 900, Y: 300}, {X: 1000, Y: 1000}, {X: 200, Y: 800},
	}
	extent, _ := outline.Bounds()

	a := r.Resolve(outline, extent)
	b := r.Resolve(outline, extent)
	assert.Equal(t, a, b)
}

func TestResolve_EmptyOutlineUsesExtent(t *testing.T) {
	r := newResolver(t)
	extent := geometry.Extent{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 700}

	res := r.Resolve(nil, extent)
	assert.Equal(t, "A4", res.Config.Preset)
	assert.Equal(t, 90, res.Config.Rotation)
}

func TestResolveExtent(t *testing.T) {
	r := newResolver(t)

	tests := []struct {
		name     string
		extent   geometry.Extent
		preset   string
		rotation int
		mayClip  bool
	}{
		{name: "A4 upright", extent: geometry.Extent{MaxX: 700, MaxY: 1100}, preset: "A4"},
		{name: "A4 quarter turn", extent: geometry.Extent{MaxX: 1100, MaxY: 700}, preset: "A4", rotation: 90},
		{name: "A3 upright", extent: geometry.Extent{MaxX: 1800, MaxY: 1000}, preset: "A3"},
		{name: "A3 quarter turn", extent: geometry.Extent{MaxX: 1000, MaxY: 1800}, preset: "A3", rotation: 90},
		{name: "too large", extent: geometry.Extent{MaxX: 3000, MaxY: 3000}, preset: "A3", mayClip: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.ResolveExtent(tt.extent)
			assert.Equal(t, tt.preset, res.Config.Preset)
			assert.Equal(t, tt.rotation, res.Config.Rotation)
			assert.Equal(t, tt.mayClip, res.Config.MayClip)
		})
	}
}

func TestDefault(t *testing.T) {
	res := newResolver(t).Default()
	assert.Equal(t, "A4", res.Config.Preset)
	assert.Equal(t, 0, res.Config.Rotation)
	assert.False(t, res.Config.HasExtent)
	assert.Nil(t, res.Advisory)
}

func TestShouldNotify(t *testing.T) {
	a4 := GridConfig{Preset: "A4", Rows: 45, Cols: 30}
	a4r := GridConfig{Preset: "A4", Rows: 45, Cols: 30, Rotation: 90}
	a3 := GridConfig{Preset: "A3", Rows: 45, Cols: 73, Orientation: Landscape}

	rotated := &Advisory{Level: Info, Text: "Rotated 90°"}
	switched := &Advisory{Level: Info, Text: "switched"}

	tests := []struct {
		name     string
		previous Resolution
		current  Resolution
		want     bool
	}{
		{name: "no advisory", previous: Resolution{Config: a3}, current: Resolution{Config: a4}, want: false},
		{name: "layout unchanged", previous: Resolution{Config: a4r, Advisory: rotated}, current: Resolution{Config: a4r, Advisory: rotated}, want: false},
		{name: "changed with new text", previous: Resolution{Config: a4}, current: Resolution{Config: a4r, Advisory: rotated}, want: true},
		{name: "changed with different text", previous: Resolution{Config: a4r, Advisory: rotated}, current: Resolution{Config: a3, Advisory: switched}, want: true},
		{name: "changed with repeated text", previous: Resolution{Config: a3, Advisory: switched}, current: Resolution{Config: a4r, Advisory: &Advisory{Text: "switched"}}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNotify(tt.previous, tt.current))
		})
	}
}

func TestGridConfig_Contains(t *testing.T) {
	c := GridConfig{Rows: 2, Cols: 3}
	assert.True(t, c.Contains(0, 0))
	assert.True(t, c.Contains(1, 2))
	assert.False(t, c.Contains(2, 0))
	assert.False(t, c.Contains(0, -1))
}
