package worksheet

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
)

// WriteText renders the sheet as aligned plain text.
func (s *Sheet) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, s.Title)
	fmt.Fprintf(tw, "K = %.0f m\tScale: 1/%d\n", s.K, s.ScaleDenominator)
	fmt.Fprintf(tw, "Landing: row %d, col %d\n", s.LandingRow, s.LandingCol)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "ROW\t① DISTANCE (V)\t② FREQUENCY\t③ ①×②\t")
	writeEntries(tw, s.Vertical)
	fmt.Fprintf(tw, "TOTAL\t\t⑧ %d\t⑨ %d\t\n", s.Totals.Degree, s.Totals.VerticalProduct)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "COL\t④ DISTANCE (H)\t⑤ FREQUENCY\t⑥ ④×⑤\t")
	writeEntries(tw, s.Horizontal)
	fmt.Fprintf(tw, "TOTAL\t\t⑧ %d\t⑦ %d\t\n", s.Totals.Degree, s.Totals.HorizontalProduct)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Average yarding distance = %s\n", s.Formula)
	if s.Distance.Rounded != "" {
		fmt.Fprintf(tw, "%s\n", s.Distance.Rounded)
	}

	return eris.Wrap(tw.Flush(), "worksheet: write text")
}

func writeEntries(w io.Writer, entries []Entry) {
	for _, e := range entries {
		mark := ""
		if e.Landing {
			mark = " *"
		}
		fmt.Fprintf(w, "%d%s\t%d\t%d\t%d\t\n", e.Index, mark, e.Distance, e.Frequency, e.Product)
	}
}
