package yarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xgrid/internal/raster"
)

func TestAggregate_ReferenceScenario(t *testing.T) {
	cells := raster.NewCellSet(
		raster.Cell{Row: 0, Col: 0},
		raster.Cell{Row: 0, Col: 1},
		raster.Cell{Row: 2, Col: 2},
	)

	res, err := Aggregate(cells, raster.Cell{Row: 1, Col: 1}, 45, 30, 25)
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowCounts[0])
	assert.Equal(t, 0, res.RowCounts[1])
	assert.Equal(t, 1, res.RowCounts[2])
	assert.Equal(t, []int{1, 1, 1}, res.ColCounts[:3])
	assert.Len(t, res.RowCounts, 45)
	assert.Len(t, res.ColCounts, 30)

	assert.Equal(t, 3, res.TotalProductVertical)
	assert.Equal(t, 2, res.TotalProductHorizontal)
	assert.Equal(t, 3, res.TotalDegree)
	assert.InDelta(t, 41.666666666666664, res.FinalDistance, 1e-12)

	assert.Equal(t, 0, res.MinRow)
	assert.Equal(t, 2, res.MaxRow)
	assert.Equal(t, 0, res.MinCol)
	assert.Equal(t, 2, res.MaxCol)
}

func TestAggregate_CountConsistency(t *testing.T) {
	cells := raster.CellSet{}
	for r := 3; r < 9; r++ {
		for c := 2; c < r; c++ {
			cells[raster.Cell{Row: r, Col: c}] = struct{}{}
		}
	}

	res, err := Aggregate(cells, raster.Cell{Row: 0, Col: 0}, 45, 30, 25)
	require.NoError(t, err)

	rowSum, colSum := 0, 0
	for _, n := range res.RowCounts {
		rowSum += n
	}
	for _, n := range res.ColCounts {
		colSum += n
	}
	assert.Equal(t, len(cells), rowSum)
	assert.Equal(t, len(cells), colSum)
	assert.Equal(t, len(cells), res.TotalDegree)
}

func TestAggregate_LandingInsideArea(t *testing.T) {
	res, err := Aggregate(raster.NewCellSet(raster.Cell{Row: 4, Col: 4}), raster.Cell{Row: 4, Col: 4}, 45, 30, 25)
	require.NoError(t, err)
	assert.Zero(t, res.FinalDistance)
}

func TestAggregate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cells   raster.CellSet
		landing raster.Cell
		want    error
	}{
		{name: "no cells", cells: raster.CellSet{}, want: ErrEmptyAggregation},
		{name: "nil cells", cells: nil, want: ErrEmptyAggregation},
		{name: "landing below grid", cells: raster.NewCellSet(raster.Cell{}), landing: raster.Cell{Row: 45}, want: ErrLandingOutOfRange},
		{name: "landing negative", cells: raster.NewCellSet(raster.Cell{}), landing: raster.Cell{Col: -1}, want: ErrLandingOutOfRange},
		{name: "cell outside", cells: raster.NewCellSet(raster.Cell{Row: 1, Col: 30}), want: ErrCellOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Aggregate(tt.cells, tt.landing, 45, 30, 25)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
