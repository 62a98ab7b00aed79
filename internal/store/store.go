// Package store persists calculation runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/xgrid/internal/layout"
	"github.com/sells-group/xgrid/internal/raster"
	"github.com/sells-group/xgrid/internal/worksheet"
)

// ErrNotFound is returned by GetRun for unknown ids.
var ErrNotFound = eris.New("store: run not found")

// Run is one saved calculation.
type Run struct {
	ID            string            `json:"id" yaml:"id"`
	Subtitle      string            `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Sources       []string          `json:"sources" yaml:"sources"`
	Layout        layout.GridConfig `json:"layout" yaml:"layout"`
	Landing       raster.Cell       `json:"landing" yaml:"landing"`
	TotalDegree   int               `json:"total_degree" yaml:"total_degree"`
	FinalDistance float64           `json:"final_distance" yaml:"final_distance"`
	Sheet         *worksheet.Sheet  `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	CreatedAt     time.Time         `json:"created_at" yaml:"created_at"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Subtitle string `json:"subtitle,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for run history.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	DeleteRun(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}
