package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/xgrid/internal/worksheet"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	subtitle       TEXT NOT NULL DEFAULT '',
	sources        TEXT NOT NULL,
	layout         TEXT NOT NULL,
	landing_row    INTEGER NOT NULL,
	landing_col    INTEGER NOT NULL,
	total_degree   INTEGER NOT NULL,
	final_distance REAL NOT NULL,
	sheet          TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_subtitle ON runs(subtitle);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts run, assigning its ID and CreatedAt when unset.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) error {
	if run == nil {
		return eris.New("sqlite: nil run")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	sourcesJSON, err := json.Marshal(run.Sources)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal sources")
	}
	layoutJSON, err := json.Marshal(run.Layout)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal layout")
	}
	var sheetJSON sql.NullString
	if run.Sheet != nil {
		b, err := json.Marshal(run.Sheet)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal sheet")
		}
		sheetJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, subtitle, sources, layout, landing_row, landing_col, total_degree, final_distance, sheet, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Subtitle, string(sourcesJSON), string(layoutJSON),
		run.Landing.Row, run.Landing.Col, run.TotalDegree, run.FinalDistance,
		sheetJSON, run.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run %s", run.ID)
}

const runColumns = `id, subtitle, sources, layout, landing_row, landing_col, total_degree, final_distance, sheet, created_at`

// GetRun loads one run with its worksheet.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if eris.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(err, "id %s", id)
	}
	return r, err
}

// ListRuns returns runs newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any

	if filter.Subtitle != "" {
		query += ` AND subtitle = ?`
		args = append(args, filter.Subtitle)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// DeleteRun removes a run.
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete run %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "id %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var (
		r           Run
		sourcesJSON string
		layoutJSON  string
		sheetJSON   sql.NullString
	)
	err := row.Scan(&r.ID, &r.Subtitle, &sourcesJSON, &layoutJSON,
		&r.Landing.Row, &r.Landing.Col, &r.TotalDegree, &r.FinalDistance,
		&sheetJSON, &r.CreatedAt)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(sourcesJSON), &r.Sources); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal sources")
	}
	if err := json.Unmarshal([]byte(layoutJSON), &r.Layout); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal layout")
	}
	if sheetJSON.Valid {
		r.Sheet = &worksheet.Sheet{}
		if err := json.Unmarshal([]byte(sheetJSON.String), r.Sheet); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal sheet")
		}
	}
	return &r, nil
}
