// Package analytics stores conversation events and reports the lead funnel.
package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	contractx "github.com/tanpawarit/Inmobilia-Lead-Capture/agent/contract"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	type       TEXT NOT NULL,
	agent      TEXT NOT NULL DEFAULT '',
	field      TEXT NOT NULL DEFAULT '',
	phase      TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	at         TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id);
CREATE INDEX IF NOT EXISTS idx_events_type ON events(type, phase);
`

type Config struct {
	Path string `default:"data/analytics.db"`
}

// SQLiteRecorder is a contract.Recorder backed by a SQLite file.
type SQLiteRecorder struct {
	db    *sql.DB
	newID func() string
	path  string
}

var _ contractx.Recorder = (*SQLiteRecorder)(nil)

func OpenSQLite(path string) (*SQLiteRecorder, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("analytics database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating analytics directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening analytics database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging analytics database: %w", err)
	}
	return newRecorder(db, path)
}

// OpenMemory opens a private in-memory database, used by tests and the
// local chat command.
func OpenMemory() (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory analytics database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	return newRecorder(db, ":memory:")
}

func newRecorder(db *sql.DB, path string) (*SQLiteRecorder, error) {
	r := &SQLiteRecorder{db: db, newID: uuid.NewString, path: path}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running analytics migrations: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRecorder) Path() string { return r.path }

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

func (r *SQLiteRecorder) Record(ctx context.Context, ev contractx.Event) error {
	if strings.TrimSpace(ev.SessionID) == "" || ev.Type == "" {
		return fmt.Errorf("%w: event needs a session id and a type", contractx.ErrValidation)
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (id, session_id, type, agent, field, phase, detail, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.newID(), ev.SessionID, string(ev.Type), string(ev.Agent), ev.Field, ev.Phase, ev.Detail,
		at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.Type, err)
	}
	return nil
}

// SessionEvents returns the events of one session in the order they
// were recorded.
func (r *SQLiteRecorder) SessionEvents(ctx context.Context, sessionID string) ([]contractx.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, type, agent, field, phase, detail, at
		 FROM events WHERE session_id = ? ORDER BY at, rowid`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []contractx.Event
	for rows.Next() {
		var (
			ev             contractx.Event
			typ, agent, at string
		)
		if err := rows.Scan(&ev.SessionID, &typ, &agent, &ev.Field, &ev.Phase, &ev.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = contractx.EventType(typ)
		ev.Agent = contractx.AgentType(agent)
		if ev.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", at, err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
