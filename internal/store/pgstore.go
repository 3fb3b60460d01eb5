// Package store keeps converted tables in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tsawler/ttcsv/table"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run describes one conversion.
type Run struct {
	ID             uuid.UUID
	Variant        string
	Source         string
	TotalPages     int
	PagesProcessed int
	Columns        []string // nil when the table has no column names
	ObjectURL      string   // set when the CSV was published
	CreatedAt      time.Time
}

type PgStore struct {
	db *sql.DB
}

func NewPgStore(conn string) (*PgStore, error) {
	db, err := sql.Open("postgres", conn)
	if err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PgStore{db: db}, nil
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts the run and every row of t in one transaction. A zero
// run ID is replaced by a new one; the ID used is returned.
func (s *PgStore) SaveRun(ctx context.Context, run Run, t *table.Table) (uuid.UUID, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if t.Named() {
		run.Columns = t.Columns()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversion_runs (id, variant, source, total_pages, pages_processed, columns, object_url)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
	`, run.ID, run.Variant, run.Source, run.TotalPages, run.PagesProcessed, pq.Array(run.Columns), run.ObjectURL)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversion_rows (run_id, row_no, cells)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return uuid.Nil, err
	}
	defer stmt.Close()

	for i := 0; i < t.Len(); i++ {
		if _, err := stmt.ExecContext(ctx, run.ID, i, pq.Array(cellValues(t.Row(i)))); err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

// SetObjectURL records where the run's CSV was published.
func (s *PgStore) SetObjectURL(ctx context.Context, id uuid.UUID, url string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE conversion_runs SET object_url = $2 WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRun loads a run's metadata.
func (s *PgStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		run       Run
		columns   []string
		objectURL sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, variant, source, total_pages, pages_processed, columns, object_url, created_at
		FROM conversion_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.Variant, &run.Source, &run.TotalPages, &run.PagesProcessed,
		pq.Array(&columns), &objectURL, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Columns = columns
	run.ObjectURL = objectURL.String
	return &run, nil
}

// LoadTable rebuilds the table stored for a run.
func (s *PgStore) LoadTable(ctx context.Context, id uuid.UUID) (*table.Table, error) {
	run, err := s.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cells
		FROM conversion_rows
		WHERE run_id = $1
		ORDER BY row_no
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := table.New()
	for rows.Next() {
		var cells []sql.NullString
		if err := rows.Scan(pq.Array(&cells)); err != nil {
			return nil, err
		}
		t.Append(rowFromValues(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if run.Columns != nil {
		t.NameColumns(run.Columns)
	}
	return t, nil
}

// cellValues maps absent cells to NULL.
func cellValues(row table.Row) []sql.NullString {
	out := make([]sql.NullString, len(row))
	for i, c := range row {
		out[i] = sql.NullString{String: c.Text, Valid: c.Valid}
	}
	return out
}

func rowFromValues(values []sql.NullString) table.Row {
	row := make(table.Row, len(values))
	for i, v := range values {
		if v.Valid {
			row[i] = table.Value(v.String)
		}
	}
	return row
}
