// Package yarding reduces an occupied-cell set and a landing cell to the
// average yarding distance.
package yarding

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/xgrid/internal/raster"
)

var (
	// ErrEmptyAggregation is returned when there are no occupied cells.
	// Callers are expected to check first; reaching it is a contract
	// violation.
	ErrEmptyAggregation = eris.New("yarding: no occupied cells to aggregate")

	// ErrInconsistentCellTotals means the row and column frequencies do not
	// both sum to the number of occupied cells.
	ErrInconsistentCellTotals = eris.New("yarding: row and column totals disagree")

	// ErrLandingOutOfRange means the landing cell lies outside the grid.
	ErrLandingOutOfRange = eris.New("yarding: landing cell outside the grid")

	// ErrCellOutOfRange means an occupied cell lies outside the grid.
	ErrCellOutOfRange = eris.New("yarding: occupied cell outside the grid")
)

// Result holds the frequency tables and totals. FinalDistance keeps full
// precision; rounding for display happens in the worksheet.
type Result struct {
	Landing raster.Cell `json:"landing" yaml:"landing"`
	Rows    int         `json:"rows" yaml:"rows"`
	Cols    int         `json:"cols" yaml:"cols"`
	K       float64     `json:"k" yaml:"k"`

	// RowCounts[r] is the number of occupied cells in row r, for every row
	// of the grid. ColCounts is the same over columns.
	RowCounts []int `json:"row_counts" yaml:"row_counts"`
	ColCounts []int `json:"col_counts" yaml:"col_counts"`

	TotalProductVertical   int     `json:"total_product_vertical" yaml:"total_product_vertical"`
	TotalProductHorizontal int     `json:"total_product_horizontal" yaml:"total_product_horizontal"`
	TotalDegree            int     `json:"total_degree" yaml:"total_degree"`
	FinalDistance          float64 `json:"final_distance" yaml:"final_distance"`

	// Occupied span, used to trim the worksheet tables.
	MinRow int `json:"min_row" yaml:"min_row"`
	MaxRow int `json:"max_row" yaml:"max_row"`
	MinCol int `json:"min_col" yaml:"min_col"`
	MaxCol int `json:"max_col" yaml:"max_col"`
}

// Aggregate computes the row and column frequencies of cells, their
// distance-weighted products relative to landing, and the final distance
// (V + H) / D × k.
func Aggregate(cells raster.CellSet, landing raster.Cell, rows, cols int, k float64) (*Result, error) {
	if len(cells) == 0 {
		return nil, ErrEmptyAggregation
	}
	if landing.Row < 0 || landing.Row >= rows || landing.Col < 0 || landing.Col >= cols {
		return nil, eris.Wrapf(ErrLandingOutOfRange, "landing (%d, %d) in %dx%d grid", landing.Row, landing.Col, rows, cols)
	}

	res := &Result{
		Landing:   landing,
		Rows:      rows,
		Cols:      cols,
		K:         k,
		RowCounts: make([]int, rows),
		ColCounts: make([]int, cols),
		MinRow:    rows,
		MinCol:    cols,
		MaxRow:    -1,
		MaxCol:    -1,
	}

	for c := range cells {
		if c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= cols {
			return nil, eris.Wrapf(ErrCellOutOfRange, "cell (%d, %d) in %dx%d grid", c.Row, c.Col, rows, cols)
		}
		res.RowCounts[c.Row]++
		res.ColCounts[c.Col]++
		res.MinRow = min(res.MinRow, c.Row)
		res.MaxRow = max(res.MaxRow, c.Row)
		res.MinCol = min(res.MinCol, c.Col)
		res.MaxCol = max(res.MaxCol, c.Col)
	}

	rowSum := 0
	for r, n := range res.RowCounts {
		rowSum += n
		res.TotalProductVertical += abs(r-landing.Row) * n
	}
	colSum := 0
	for c, n := range res.ColCounts {
		colSum += n
		res.TotalProductHorizontal += abs(c-landing.Col) * n
	}

	res.TotalDegree = len(cells)
	if rowSum != res.TotalDegree || colSum != res.TotalDegree {
		return nil, eris.Wrapf(ErrInconsistentCellTotals, "rows=%d cols=%d cells=%d", rowSum, colSum, res.TotalDegree)
	}

	res.FinalDistance = float64(res.TotalProductVertical+res.TotalProductHorizontal) / float64(res.TotalDegree) * k
	return res, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
