// Package layout resolves which grid preset, page orientation and rotation
// angle let the loaded geometry fit inside the reference grid.
package layout

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xgrid/internal/geometry"
)

// Orientation is the printed page orientation of a preset.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// MarshalText renders the orientation by name in JSON and YAML output.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses "portrait" or "landscape".
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "portrait":
		*o = Portrait
	case "landscape":
		*o = Landscape
	default:
		return eris.Errorf("layout: unknown orientation %q", b)
	}
	return nil
}

// Preset is a fixed grid template.
type Preset struct {
	Name        string
	Rows        int
	Cols        int
	Orientation Orientation
}

// Reference deployment presets.
var (
	A4 = Preset{Name: "A4", Rows: 45, Cols: 30, Orientation: Portrait}
	A3 = Preset{Name: "A3", Rows: 45, Cols: 73, Orientation: Landscape}
)

// DefaultK is the world distance, in metres, covered by one cell edge.
const DefaultK = 25.0

// GridConfig is the resolved layout. It is produced by the Resolver and
// passed by value to rasterization and aggregation; nothing downstream
// mutates it.
type GridConfig struct {
	Preset      string      `json:"preset" yaml:"preset"`
	Rows        int         `json:"rows" yaml:"rows"`
	Cols        int         `json:"cols" yaml:"cols"`
	K           float64     `json:"k" yaml:"k"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Rotation    int         `json:"rotation" yaml:"rotation"`
	MayClip     bool        `json:"may_clip" yaml:"may_clip"`

	// Extent is the global extent the layout was resolved against. Its
	// centre is the rotation pivot for rasterization.
	Extent    geometry.Extent `json:"extent" yaml:"extent"`
	HasExtent bool            `json:"has_extent" yaml:"has_extent"`
}

// SameLayout reports whether two configurations place cells identically in
// grid terms: same rows, cols, orientation and rotation.
func (c GridConfig) SameLayout(o GridConfig) bool {
	return c.Rows == o.Rows && c.Cols == o.Cols &&
		c.Orientation == o.Orientation && c.Rotation == o.Rotation
}

// Contains reports whether (row, col) lies inside the grid.
func (c GridConfig) Contains(row, col int) bool {
	return row >= 0 && row < c.Rows && col >= 0 && col < c.Cols
}

func (c GridConfig) String() string {
	return fmt.Sprintf("%s %s %dx%d rot=%d°", c.Preset, c.Orientation, c.Rows, c.Cols, c.Rotation)
}

// Level classifies an advisory.
type Level int

const (
	Info Level = iota
	Warning
)

func (l Level) String() string {
	if l == Warning {
		return "warning"
	}
	return "info"
}

// MarshalText renders the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses "info" or "warning".
func (l *Level) UnmarshalText(b []byte) error {
	switch string(b) {
	case "info":
		*l = Info
	case "warning":
		*l = Warning
	default:
		return eris.Errorf("layout: unknown advisory level %q", b)
	}
	return nil
}

// Advisory is a human-readable explanation of a non-default layout.
type Advisory struct {
	Level Level  `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
}

// Resolution is the outcome of one fit search.
type Resolution struct {
	Config   GridConfig `json:"config" yaml:"config"`
	Advisory *Advisory  `json:"advisory,omitempty" yaml:"advisory,omitempty"`
}

// Err returns ErrNoFittingLayout when the resolution is the forced fallback.
func (r Resolution) Err() error {
	if r.Config.MayClip {
		return ErrNoFittingLayout
	}
	return nil
}

// ShouldNotify decides whether the caller should surface current's advisory
// given the previous resolution: only when there is an advisory, the layout
// actually changed, and the text differs from the last one.
func ShouldNotify(previous, current Resolution) bool {
	if current.Advisory == nil || current.Advisory.Text == "" {
		return false
	}
	if previous.Config.SameLayout(current.Config) {
		return false
	}
	return previous.Advisory == nil || previous.Advisory.Text != current.Advisory.Text
}
