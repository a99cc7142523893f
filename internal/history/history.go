// Package history provides a SQLite-backed log of synchronization runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL,
	status      TEXT NOT NULL,
	message     TEXT NOT NULL DEFAULT '',
	icon_count  INTEGER NOT NULL DEFAULT 0,
	checksum    TEXT NOT NULL DEFAULT '',
	target      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded synchronization run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	IconCount  int       `json:"icon_count"`
	Checksum   string    `json:"checksum"`
	Target     string    `json:"target"`
}

// DB wraps a sql.DB with run-log operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Insert records a run.
func (db *DB) Insert(r Run) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, started_at, finished_at, status, message, icon_count, checksum, target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.StartedAt, r.FinishedAt, r.Status, r.Message, r.IconCount, r.Checksum, r.Target)
	if err != nil {
		return fmt.Errorf("history: insert run: %w", err)
	}
	return nil
}

// List returns runs ordered newest first, plus the total count.
func (db *DB) List(limit, offset int) ([]Run, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("history: count runs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, started_at, finished_at, status, message, icon_count, checksum, target
		FROM runs ORDER BY started_at DESC, id LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.Message, &r.IconCount, &r.Checksum, &r.Target); err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// Last returns the most recent run, or nil when no runs are recorded.
func (db *DB) Last() (*Run, error) {
	var r Run
	err := db.conn.QueryRow(`
		SELECT id, started_at, finished_at, status, message, icon_count, checksum, target
		FROM runs ORDER BY started_at DESC, id LIMIT 1
	`).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Status,
		&r.Message, &r.IconCount, &r.Checksum, &r.Target)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: last run: %w", err)
	}
	return &r, nil
}
