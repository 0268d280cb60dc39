package report

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Archive keeps every scan run in a single SQLite database so fringe
// curves remain queryable across runs.
type Archive struct {
	db *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	raw_visibility REAL NOT NULL,
	fitted_visibility REAL,
	fit_a REAL,
	fit_b REAL,
	fit_k REAL,
	fit_phi REAL
);
CREATE TABLE IF NOT EXISTS points (
	run_id TEXT NOT NULL REFERENCES runs(id),
	temperature REAL NOT NULL,
	mean_amplitude REAL NOT NULL,
	std_amplitude REAL NOT NULL,
	repeats INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_points_run ON points(run_id);
`

// OpenArchive opens (creating if needed) the run archive at dbPath
func OpenArchive(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite archive: %w", err)
	}
	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// SaveRun inserts one record and its curve in a single transaction
func (a *Archive) SaveRun(rec *Record) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var fitA, fitB, fitK, fitPhi any
	if rec.Fit != nil {
		fitA, fitB, fitK, fitPhi = rec.Fit.A, rec.Fit.B, rec.Fit.K, rec.Fit.Phi
	}
	var fitted any
	if rec.FittedVisibility != nil {
		fitted = *rec.FittedVisibility
	}

	_, err = tx.Exec(`INSERT INTO runs (id, started_at, completed_at, raw_visibility, fitted_visibility, fit_a, fit_b, fit_k, fit_phi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.StartedAt.Format("2006-01-02T15:04:05Z07:00"), rec.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
		rec.RawVisibility, fitted, fitA, fitB, fitK, fitPhi)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", rec.RunID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO points (run_id, temperature, mean_amplitude, std_amplitude, repeats) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range rec.Data {
		if _, err := stmt.Exec(rec.RunID, p.Temperature, p.MeanAmplitude, p.StdAmplitude, p.Repeats); err != nil {
			return fmt.Errorf("inserting point for run %s: %w", rec.RunID, err)
		}
	}

	return tx.Commit()
}

// Close closes the underlying database
func (a *Archive) Close() error {
	return a.db.Close()
}
