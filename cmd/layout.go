package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/worksheet"
)

var layoutCmd = &cobra.Command{
	Use:   "layout <file>...",
	Short: "Resolve the grid layout for a set of layers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		panFlag, _ := cmd.Flags().GetString("pan")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		pan, err := parseOffset(panFlag)
		if err != nil {
			return eris.Wrap(err, "layout: --pan")
		}

		layers, err := loadLayers(cmd, args)
		if err != nil {
			return err
		}
		s, upd, err := buildSession(layers, parseExclusions(exclude))
		if err != nil {
			return err
		}
		s.SetPan(pan)

		return writeLayout(os.Stdout, format, layoutReport{
			Resolution: upd.Resolution,
			Cells:      s.Cells().Sorted(),
		})
	},
}

func init() {
	layoutCmd.Flags().String("format", worksheet.FormatText, "output format (text, json, yaml)")
	layoutCmd.Flags().String("pan", "", "offset of the data against the grid as dx,dy in screen units")
	layoutCmd.Flags().StringSlice("exclude", nil, "layer names left out of the calculation area")
	rootCmd.AddCommand(layoutCmd)
}

// layoutReport is the machine-readable layout output.
type layoutReport struct {
	Resolution layout.Resolution `json:"resolution" yaml:"resolution"`
	Cells      []raster.Cell     `json:"cells" yaml:"cells"`
}

func writeLayout(out io.Writer, format string, r layoutReport) error {
	switch format {
	case "", worksheet.FormatText:
		c := r.Resolution.Config
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Preset:\t%s\n", c.Preset)
		_, _ = fmt.Fprintf(w, "Orientation:\t%s\n", c.Orientation)
		_, _ = fmt.Fprintf(w, "Grid:\t%d rows x %d cols\n", c.Rows, c.Cols)
		_, _ = fmt.Fprintf(w, "Rotation:\t%d°\n", c.Rotation)
		_, _ = fmt.Fprintf(w, "Cell side:\t%g m\n", c.K)
		_, _ = fmt.Fprintf(w, "Occupied cells:\t%d\n", len(r.Cells))
		if c.MayClip {
			_, _ = fmt.Fprintln(w, "Clipping:\tdata may extend past the grid")
		}
		if a := r.Resolution.Advisory; a != nil {
			_, _ = fmt.Fprintf(w, "Advisory:\t[%s] %s\n", a.Level, a.Text)
		}
		return w.Flush()
	case worksheet.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(r), "layout: encode json")
	case worksheet.FormatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return eris.Wrap(err, "layout: encode yaml")
		}
		return eris.Wrap(enc.Close(), "layout: encode yaml")
	default:
		return eris.Errorf("layout: unknown format %q", format)
	}
}
