package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/session"
	"github.com/sells-group/xgrid/internal/source"
)

// parsePair splits "a,b" into two trimmed fields.
func parsePair(s string) (string, string, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return "", "", eris.Errorf("expected two comma-separated values, got %q", s)
	}
	return strings.TrimSpace(a), strings.TrimSpace(b), nil
}

// parseCell parses "row,col".
func parseCell(s string) (raster.Cell, error) {
	a, b, err := parsePair(s)
	if err != nil {
		return raster.Cell{}, err
	}
	row, err := strconv.Atoi(a)
	if err != nil {
		return raster.Cell{}, eris.Wrapf(err, "parse row %q", a)
	}
	col, err := strconv.Atoi(b)
	if err != nil {
		return raster.Cell{}, eris.Wrapf(err, "parse col %q", b)
	}
	return raster.Cell{Row: row, Col: col}, nil
}

// parsePoint parses "x,y" in grid pixels.
func parsePoint(s string) (float64, float64, error) {
	a, b, err := parsePair(s)
	if err != nil {
		return 0, 0, err
	}
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse x %q", a)
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse y %q", b)
	}
	return x, y, nil
}

// parseOffset parses "dx,dy". An empty string is no pan.
func parseOffset(s string) (raster.Offset, error) {
	if s == "" {
		return raster.Offset{}, nil
	}
	x, y, err := parsePoint(s)
	if err != nil {
		return raster.Offset{}, err
	}
	return raster.Offset{X: x, Y: y}, nil
}

// parseExclusions parses a list of layer names excluded from the area.
func parseExclusions(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out[n] = true
		}
	}
	return out
}

// loadLayers reads every file concurrently, in argument order.
func loadLayers(cmd *cobra.Command, paths []string) ([]source.Layer, error) {
	layers, err := source.LoadAll(cmd.Context(), paths)
	if err != nil {
		return nil, err
	}
	if len(layers) == 0 {
		return nil, eris.New("no layers found")
	}
	return layers, nil
}

// buildSession stacks layers into a new session. Layers are added in
// argument order so the last one is on top. Layers named in exclude stay in
// the stack but are left out of the calculation area.
func buildSession(layers []source.Layer, exclude map[string]bool) (*session.Session, session.Update, error) {
	s, err := session.New(cfg.Settings())
	if err != nil {
		return nil, session.Update{}, err
	}
	upd := s.AddLayers(layers...)
	for i, l := range layers {
		if !exclude[l.Name] {
			continue
		}
		if err := s.SetCalcTarget(len(layers)-1-i, false); err != nil {
			return nil, session.Update{}, err
		}
	}
	return s, upd, nil
}
