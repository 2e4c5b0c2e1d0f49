package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder appends events to a local SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRecorder opens (and if needed creates) the database at dbPath.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases and write ordering consistent
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS login_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			step TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create login_events table: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_login_events_created_at ON login_events(created_at)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteRecorder{db: db, now: time.Now}, nil
}

// Record inserts ev, stamping CreatedAt when it is zero.
func (r *SQLiteRecorder) Record(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO login_events (request_id, step, outcome, error_kind, created_at) VALUES (?, ?, ?, ?, ?)",
		ev.RequestID, string(ev.Step), string(ev.Outcome), ev.ErrorKind, ev.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert login event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, step, outcome, error_kind, created_at
		FROM login_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query login events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev      Event
			step    string
			outcome string
		)
		if err := rows.Scan(&ev.ID, &ev.RequestID, &step, &outcome, &ev.ErrorKind, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan login event: %w", err)
		}
		ev.Step = Step(step)
		ev.Outcome = Outcome(outcome)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
