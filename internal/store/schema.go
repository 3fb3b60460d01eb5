package store

import (
	"database/sql"
)

// ensureSchema creates the run and row tables.
func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversion_runs (
			id UUID PRIMARY KEY,
			variant TEXT NOT NULL,
			source TEXT NOT NULL,
			total_pages INTEGER NOT NULL,
			pages_processed INTEGER NOT NULL,
			columns TEXT[],
			object_url TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS conversion_rows (
			run_id UUID NOT NULL REFERENCES conversion_runs(id) ON DELETE CASCADE,
			row_no INTEGER NOT NULL,
			cells TEXT[] NOT NULL,
			PRIMARY KEY (run_id, row_no)
		)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
