package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"excel2web/internal"
)

// DB is the run journal. Nothing in it is read back to answer a price query.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  runId TEXT PRIMARY KEY,
  mode TEXT NOT NULL,
  input TEXT NOT NULL,
  output TEXT NOT NULL,
  rowCount INTEGER NOT NULL,
  countsJson TEXT NOT NULL,
  durationMs INTEGER NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  rowNo INTEGER NOT NULL,
  query TEXT NOT NULL,
  priceText TEXT NOT NULL,
  source TEXT NOT NULL,
  originUrl TEXT,
  UNIQUE(runId, rowNo),
  FOREIGN KEY(runId) REFERENCES runs(runId)
);
CREATE INDEX IF NOT EXISTS idx_results_runId ON results(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// SaveRun stores the run and its per-row results in one transaction.
func (d *DB) SaveRun(summary internal.RunSummary, rows []internal.ResultExportRow) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	countsJSON, _ := json.Marshal(summary.Counts)
	if _, err := tx.Exec(`
INSERT INTO runs (runId, mode, input, output, rowCount, countsJson, durationMs)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, summary.RunID, string(summary.Mode), summary.Input, summary.Output, summary.Rows, string(countsJSON), summary.Duration.Milliseconds()); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO results (runId, rowNo, query, priceText, source, originUrl)
VALUES (?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(summary.RunID, row.RowNo, row.Query, row.PriceText, row.Source, row.OriginURL); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) GetRun(runID string) (*internal.RunSummary, error) {
	var (
		run        internal.RunSummary
		mode       string
		countsJSON string
		durationMs int64
	)
	err := d.conn.QueryRow(`
SELECT runId, mode, input, output, rowCount, countsJson, durationMs
FROM runs WHERE runId = ?
`, runID).Scan(&run.RunID, &mode, &run.Input, &run.Output, &run.Rows, &countsJSON, &durationMs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.Mode = internal.QueryMode(mode)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	_ = json.Unmarshal([]byte(countsJSON), &run.Counts)
	return &run, nil
}

func (d *DB) LatestRunID() (string, error) {
	var runID string
	err := d.conn.QueryRow(`SELECT runId FROM runs ORDER BY createdAt DESC, rowid DESC LIMIT 1`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return runID, err
}

func (d *DB) GetExportRows(runID string) ([]internal.ResultExportRow, error) {
	rows, err := d.conn.Query(`
SELECT rowNo, query, priceText, source, originUrl
FROM results WHERE runId = ?
ORDER BY rowNo ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ResultExportRow
	for rows.Next() {
		var row internal.ResultExportRow
		if err := rows.Scan(&row.RowNo, &row.Query, &row.PriceText, &row.Source, &row.OriginURL); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) MustRun(runID string) (internal.RunSummary, error) {
	run, err := d.GetRun(runID)
	if err != nil {
		return internal.RunSummary{}, err
	}
	if run == nil {
		return internal.RunSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	return *run, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
