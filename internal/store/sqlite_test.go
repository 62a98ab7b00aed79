package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/worksheet"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRun(subtitle string, created time.Time) *Run {
	return &Run{
		Subtitle: subtitle,
		Sources:  []string{"stands.shp", "roads.gpkg"},
		Layout: layout.GridConfig{
			Preset: "A3", Rows: 45, Cols: 73, K: 25,
			Orientation: layout.Landscape, Rotation: 12, HasExtent: true,
		},
		Landing:       raster.Cell{Row: 3, Col: 7},
		TotalDegree:   3,
		FinalDistance: 125.0 / 3,
		Sheet: &worksheet.Sheet{
			Title:   subtitle + "  " + worksheet.Title,
			Formula: "(⑨ + ⑦) ÷ ⑧ × K = (3 + 2) ÷ 3 × 25 = 41.6 m",
			Totals:  worksheet.Totals{HorizontalProduct: 2, Degree: 3, VerticalProduct: 3},
		},
		CreatedAt: created,
	}
}

func TestSQLite_SaveAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("North", time.Time{})
	require.NoError(t, st.SaveRun(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "North", got.Subtitle)
	assert.Equal(t, run.Sources, got.Sources)
	assert.Equal(t, run.Layout, got.Layout)
	assert.Equal(t, run.Landing, got.Landing)
	assert.Equal(t, 3, got.TotalDegree)
	assert.InDelta(t, run.FinalDistance, got.FinalDistance, 1e-12)
	require.NotNil(t, got.Sheet)
	assert.Equal(t, run.Sheet.Totals, got.Sheet.Totals)
	assert.Equal(t, run.Sheet.Formula, got.Sheet.Formula)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_SaveRun_WithoutSheet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("bare", time.Time{})
	run.Sheet = nil
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Sheet)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	for i, subtitle := range []string{"north", "south", "north"} {
		require.NoError(t, st.SaveRun(ctx, sampleRun(subtitle, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.After(all[1].CreatedAt))
	assert.True(t, all[1].CreatedAt.After(all[2].CreatedAt))

	north, err := st.ListRuns(ctx, RunFilter{Subtitle: "north"})
	require.NoError(t, err)
	assert.Len(t, north, 2)

	page, err := st.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "south", page[0].Subtitle)
}

func TestSQLite_DeleteRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := sampleRun("gone", time.Time{})
	require.NoError(t, st.SaveRun(ctx, run))
	require.NoError(t, st.DeleteRun(ctx, run.ID))

	_, err := st.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeleteRun(ctx, run.ID), ErrNotFound)
}

func TestSQLite_SaveRun_Nil(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.Error(t, st.SaveRun(context.Background(), nil))
}
