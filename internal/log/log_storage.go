// log_storage.go implements SQLite-based persistent audit logging.
//
// Separated from log.go to isolate database concerns. The main log.go provides
// the fluent API for building log entries, while this file handles persistence.
// The project field uses a hash of the directory path to enable aggregation
// across projects while preserving privacy.
//
// Design: Errors during logging are reported to stderr and otherwise ignored
// (best-effort). A dock action should succeed even if we can't record it.

package log

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// Logger writes audit entries and messages to a SQLite database.
type Logger struct {
	db      *sql.DB
	project string

	msgs    chan Record
	done    chan struct{}
	dropped atomic.Int64
}

func newLogger(db *sql.DB) *Logger {
	l := &Logger{
		db:   db,
		msgs: make(chan Record, queueSize),
		done: make(chan struct{}),
	}
	go l.drain()
	return l
}

func (l *Logger) log(e Entry) {
	var detail *string
	if len(e.Detail) > 0 {
		if b, err := json.Marshal(e.Detail); err == nil {
			s := string(b)
			detail = &s
		}
	}

	success := 0
	if e.Success {
		success = 1
	}

	_, err := l.db.Exec(`
		INSERT INTO log (start, end, project, source, action, dock, success, error, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Start, e.End, l.project, e.Source, e.Action, nilIfEmpty(e.Dock),
		success, nilIfEmpty(e.Error), detail,
	)
	if err != nil {
		// Best-effort logging: don't break main operation, but report failure
		_, _ = fmt.Fprintf(os.Stderr, "dock: audit log write failed: %v\n", err)
	}
}

func (l *Logger) drain() {
	defer close(l.done)
	for r := range l.msgs {
		_, err := l.db.Exec(`
			INSERT INTO message (ts, project, level, source, message)
			VALUES (?, ?, ?, ?, ?)`,
			r.Time.UnixMilli(), l.project, r.Level.String(), r.Source, r.Message,
		)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "dock: message write failed: %v\n", err)
		}
	}
}

// close stops accepting messages, waits for the queue to drain and closes
// the database. The caller must already have cleared the global.
func (l *Logger) close() {
	close(l.msgs)
	<-l.done
	l.db.Close()
}

// Messages returns up to limit most recent messages, newest first,
// optionally filtered by source.
func Messages(limit int, source string) ([]Record, error) {
	mu.Lock()
	l := global
	mu.Unlock()
	if l == nil {
		return nil, nil
	}

	q := `SELECT ts, level, source, message FROM message`
	args := []any{}
	if source != "" {
		q += ` WHERE source = ?`
		args = append(args, source)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var ts int64
		var level string
		var r Record
		if err := rows.Scan(&ts, &level, &r.Source, &r.Message); err != nil {
			return nil, err
		}
		r.Time = time.UnixMilli(ts)
		r.Level, _ = ParseLevel(level)
		out = append(out, r)
	}
	return out, rows.Err()
}

// dbPathFunc is the function that returns the database path.
// Tests can override this to use a temp directory.
var dbPathFunc = defaultDBPath

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory if home cannot be determined.
		return filepath.Join(".dock", "log", "dock-log.db")
	}
	return filepath.Join(home, ".dock", "log", "dock-log.db")
}

func dbPath() string {
	return dbPathFunc()
}

// DBPath returns the path to the log database.
func DBPath() string {
	return dbPath()
}

// SetDBPath overrides the database location. Call before Open.
func SetDBPath(p string) {
	mu.Lock()
	defer mu.Unlock()
	dbPathFunc = func() string { return p }
}

// hash creates a project identifier from the directory path, enabling
// cross-project log queries while preserving privacy.
func hash(s string) string {
	h, err := blake2b.New(8, nil) // 64-bit = 16 hex chars
	if err != nil {
		// Should never happen with nil key, but don't silently ignore
		panic("blake2b.New failed: " + err.Error())
	}
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

// migrate creates the tables if they don't exist. Safe for concurrent access.
func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		CREATE TABLE IF NOT EXISTS log (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			start    INTEGER NOT NULL,
			end      INTEGER NOT NULL,
			project  TEXT NOT NULL,
			source   TEXT NOT NULL,
			action   TEXT NOT NULL,
			dock     TEXT,
			success  INTEGER NOT NULL,
			error    TEXT,
			detail   TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_log_start ON log(start);
		CREATE INDEX IF NOT EXISTS idx_log_project ON log(project);
		CREATE INDEX IF NOT EXISTS idx_log_dock ON log(dock);
		CREATE TABLE IF NOT EXISTS message (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			ts       INTEGER NOT NULL,
			project  TEXT NOT NULL,
			level    TEXT NOT NULL,
			source   TEXT NOT NULL,
			message  TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_message_source ON message(source);
	`)
	return err
}

// nilIfEmpty returns nil for empty strings, reducing NULL checks in queries.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
