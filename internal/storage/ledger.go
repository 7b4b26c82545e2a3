// Package storage keeps a local SQLite ledger of pipeline runs: one row per
// attempt with per-table load counts, the transform's data-quality warnings
// and the failure message when a run aborted.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ventasetl/internal"
)

type Ledger struct {
	conn *sql.DB
}

func Open(path string) (*Ledger, error) {
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

	l := &Ledger{conn: conn}
	if err := l.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'running',
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT,
  countsJson TEXT NOT NULL DEFAULT '{}',
  warningsJson TEXT NOT NULL DEFAULT '[]',
  error TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := l.conn.Exec(schema)
	return err
}

func (l *Ledger) StartRun(traceID string) (int64, error) {
	result, err := l.conn.Exec(`INSERT INTO runs (traceId) VALUES (?)`, traceID)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FinishRun closes a run as succeeded, recording what was loaded and which
// warnings the transform surfaced.
func (l *Ledger) FinishRun(runID int64, counts map[string]int, warnings []internal.Warning) error {
	countsJSON, _ := json.Marshal(counts)
	warningsJSON, _ := json.Marshal(warnings)
	_, err := l.conn.Exec(`
UPDATE runs SET status = 'succeeded', finishedAt = CURRENT_TIMESTAMP, countsJson = ?, warningsJson = ?
WHERE id = ?
`, string(countsJSON), string(warningsJSON), runID)
	return err
}

// FailRun closes a run as failed. Partial load counts are kept so the
// ledger shows how far the run got before aborting.
func (l *Ledger) FailRun(runID int64, counts map[string]int, runErr error) error {
	countsJSON, _ := json.Marshal(counts)
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := l.conn.Exec(`
UPDATE runs SET status = 'failed', finishedAt = CURRENT_TIMESTAMP, countsJson = ?, error = ?
WHERE id = ?
`, string(countsJSON), msg, runID)
	return err
}

func (l *Ledger) GetRun(runID int64) (*internal.RunRecord, error) {
	var rec internal.RunRecord
	var countsJSON, warningsJSON string
	err := l.conn.QueryRow(`
SELECT id, traceId, status, startedAt, finishedAt, countsJson, warningsJson, error
FROM runs WHERE id = ?
`, runID).Scan(&rec.ID, &rec.TraceID, &rec.Status, &rec.StartedAt, &rec.FinishedAt, &countsJSON, &warningsJSON, &rec.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(countsJSON), &rec.Counts)
	_ = json.Unmarshal([]byte(warningsJSON), &rec.Warnings)
	return &rec, nil
}

func (l *Ledger) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := l.conn.Query(`
SELECT id, traceId, status, startedAt, finishedAt, countsJson, warningsJson, error
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRecord
	for rows.Next() {
		var rec internal.RunRecord
		var countsJSON, warningsJSON string
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.Status, &rec.StartedAt, &rec.FinishedAt, &countsJSON, &warningsJSON, &rec.Error); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(countsJSON), &rec.Counts)
		_ = json.Unmarshal([]byte(warningsJSON), &rec.Warnings)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *Ledger) SetMetadata(key, value string) error {
	_, err := l.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (l *Ledger) GetMetadata(key string) (*string, error) {
	var value string
	err := l.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
