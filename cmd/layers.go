package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/xgrid/internal/source"
)

var layersCmd = &cobra.Command{
	Use:   "layers <file>...",
	Short: "List the layers found in shapefiles, GeoPackages and GeoJSON files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layers, err := loadLayers(cmd, args)
		if err != nil {
			return err
		}
		formatLayers(os.Stdout, layers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layersCmd)
}

// formatLayers writes a tabular list of layers to out.
func formatLayers(out io.Writer, layers []source.Layer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tFEATURES\tTARGET\tEXTENT")
	_, _ = fmt.Fprintln(w, "----\t----\t--------\t------\t------")

	for _, l := range layers {
		extent := "-"
		if l.Extent != nil {
			extent = fmt.Sprintf("%.1f,%.1f %.1f,%.1f", l.Extent.MinX, l.Extent.MinY, l.Extent.MaxX, l.Extent.MaxY)
		}
		target := "no"
		if l.Polygonal() {
			target = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", l.Name, l.GeometryType, len(l.Features), target, extent)
	}
	_ = w.Flush()
}
