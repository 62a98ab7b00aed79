// Package worksheet lays out a yarding result as the printed calculation
// sheet: vertical and horizontal distance tables, the named totals and the
// final formula.
package worksheet

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xgrid/internal/yarding"
)

// Title is the sheet heading; a subtitle is prepended when given.
const Title = "Average Yarding Distance Worksheet"

// DefaultScaleDenominator is the printed map scale, 1/5000.
const DefaultScaleDenominator = 5000

// Entry is one table line: the distance from the landing, the number of
// occupied cells at that distance, and their product.
type Entry struct {
	Index     int  `json:"index" yaml:"index"`
	Distance  int  `json:"distance" yaml:"distance"`
	Frequency int  `json:"frequency" yaml:"frequency"`
	Product   int  `json:"product" yaml:"product"`
	Landing   bool `json:"landing,omitempty" yaml:"landing,omitempty"`
}

// Totals are the named sums printed under the tables.
type Totals struct {
	HorizontalProduct int `json:"horizontal_product" yaml:"horizontal_product"` // ⑦
	Degree            int `json:"degree" yaml:"degree"`                         // ⑧
	VerticalProduct   int `json:"vertical_product" yaml:"vertical_product"`     // ⑨
}

// Distance is the display form of the final distance.
type Distance struct {
	Exact     float64 `json:"exact" yaml:"exact"`
	Truncated float64 `json:"truncated" yaml:"truncated"`
	Text      string  `json:"text" yaml:"text"`
	// Rounded is the nearest-metre line, set only when Text carries a
	// non-zero tenths digit.
	Rounded string `json:"rounded,omitempty" yaml:"rounded,omitempty"`
}

// Sheet is the assembled worksheet.
type Sheet struct {
	Title            string   `json:"title" yaml:"title"`
	Subtitle         string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	K                float64  `json:"k" yaml:"k"`
	ScaleDenominator int      `json:"scale_denominator" yaml:"scale_denominator"`
	LandingRow       int      `json:"landing_row" yaml:"landing_row"`
	LandingCol       int      `json:"landing_col" yaml:"landing_col"`
	Vertical         []Entry  `json:"vertical" yaml:"vertical"`
	Horizontal       []Entry  `json:"horizontal" yaml:"horizontal"`
	Totals           Totals   `json:"totals" yaml:"totals"`
	Formula          string   `json:"formula" yaml:"formula"`
	Distance         Distance `json:"distance" yaml:"distance"`
}

// Options carries the presentation inputs that are not part of the result.
type Options struct {
	Subtitle         string
	ScaleDenominator int
}

// Assemble builds the sheet for res. Table lines cover the occupied row and
// column span plus the landing row and column, in index order.
func Assemble(res *yarding.Result, opts Options) (*Sheet, error) {
	if res == nil {
		return nil, eris.New("worksheet: nil result")
	}
	if opts.ScaleDenominator <= 0 {
		opts.ScaleDenominator = DefaultScaleDenominator
	}

	s := &Sheet{
		Title:            Title,
		Subtitle:         opts.Subtitle,
		K:                res.K,
		ScaleDenominator: opts.ScaleDenominator,
		LandingRow:       res.Landing.Row,
		LandingCol:       res.Landing.Col,
		Vertical:         table(res.RowCounts, res.MinRow, res.MaxRow, res.Landing.Row),
		Horizontal:       table(res.ColCounts, res.MinCol, res.MaxCol, res.Landing.Col),
		Totals: Totals{
			HorizontalProduct: res.TotalProductHorizontal,
			Degree:            res.TotalDegree,
			VerticalProduct:   res.TotalProductVertical,
		},
		Distance: FormatDistance(res.FinalDistance),
	}
	if opts.Subtitle != "" {
		s.Title = opts.Subtitle + "  " + Title
	}
	s.Formula = fmt.Sprintf("(⑨ + ⑦) ÷ ⑧ × K = (%d + %d) ÷ %d × %.0f = %s",
		res.TotalProductVertical, res.TotalProductHorizontal, res.TotalDegree, res.K, s.Distance.Text)
	return s, nil
}

func table(counts []int, lo, hi, landing int) []Entry {
	var out []Entry
	for i, n := range counts {
		if (i < lo || i > hi) && i != landing {
			continue
		}
		d := i - landing
		if d < 0 {
			d = -d
		}
		out = append(out, Entry{
			Index:     i,
			Distance:  d,
			Frequency: n,
			Product:   d * n,
			Landing:   i == landing,
		})
	}
	return out
}

// FormatDistance truncates d to one decimal. A zero tenths digit prints as
// whole metres; otherwise one decimal is shown together with a rounded
// "≒ N m" line.
func FormatDistance(d float64) Distance {
	truncated := math.Floor(d*10) / 10
	out := Distance{Exact: d, Truncated: truncated}

	tenths := int(math.Floor(d*10)) % 10
	if tenths == 0 {
		out.Text = fmt.Sprintf("%d m", int(truncated))
		return out
	}
	out.Text = fmt.Sprintf("%.1f m", truncated)
	out.Rounded = fmt.Sprintf("≒ %d m", int(d+0.5))
	return out
}
