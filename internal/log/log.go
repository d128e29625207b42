// Package log provides centralised audit logging for the dock host.
// Logs are stored in ~/.dock/log/dock-log.db and record lifecycle
// transitions, palette activity, CLI commands and MCP tool invocations.
//
// # Fluent API
//
// Use the fluent builder API to construct and write audit entries:
//
//	log.Event("lifecycle", "load").
//		Dock(id.ID).
//		Detail("version", id.Version).
//		Write(err)
//
//	log.Event("palette", "search").
//		Detail("query", query).
//		Detail("count", res.Len()).
//		Write(err)
//
// The source names the subsystem ("lifecycle", "palette", "host", "bus") or,
// for commands, "cli:{command}" and "mcp:{tool}".
//
// # Messages
//
// Docks log through their context's Logger, which ends up in [Message].
// Messages are queued and written by a background goroutine so a dock can
// log from any goroutine without waiting on the database.
package log

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	global *Logger
	mu     sync.Mutex
)

// Entry represents a single audit entry.
type Entry struct {
	Source string // e.g. "lifecycle", "cli:search", "mcp:dock_run"
	Action string // verb: load, activate, search, run, etc.
	Dock   string // dock identifier the action concerns, if any

	// Timing
	Start int64 // unix milliseconds when Event() called
	End   int64 // unix milliseconds when Write() called

	Success bool           // whether the action succeeded
	Error   string         // error message if failed
	Detail  map[string]any // additional action-specific data
}

// Builder constructs a log entry using a fluent API.
// Create with [Event], chain methods to set fields, then call [Builder.Write].
type Builder struct {
	entry Entry
}

// Event creates a new audit entry builder.
func Event(source, action string) *Builder {
	return &Builder{
		entry: Entry{
			Source: source,
			Action: action,
			Start:  time.Now().UnixMilli(),
		},
	}
}

// Dock sets the dock identifier this action concerns.
func (b *Builder) Dock(id string) *Builder {
	b.entry.Dock = id
	return b
}

// Detail adds a key-value pair to the entry's detail map.
// Can be called multiple times.
func (b *Builder) Detail(key string, value any) *Builder {
	if b.entry.Detail == nil {
		b.entry.Detail = make(map[string]any)
	}
	b.entry.Detail[key] = value
	return b
}

// Write completes the entry, deriving success from err, and stores it.
func (b *Builder) Write(err error) {
	b.entry.End = time.Now().UnixMilli()
	b.entry.Success = err == nil
	if err != nil {
		b.entry.Error = err.Error()
	}
	Log(b.entry)
}

// Open initialises the global logger. Safe to call multiple times.
// Errors are returned but callers may choose to ignore them (best-effort logging).
func Open() error {
	mu.Lock()
	defer mu.Unlock()

	if global != nil {
		return nil
	}

	p := dbPath()
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return err
	}
	// The message writer and callers share the database file.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	global = newLogger(db)
	return nil
}

// SetProject sets the project identifier for subsequent log entries.
// The dir should be the absolute path to the .dock directory.
func SetProject(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		global.project = hash(dir)
	}
}

// Log writes an entry. Safe to call if logger not initialised (no-op).
func Log(e Entry) {
	mu.Lock()
	l := global
	mu.Unlock()

	if l == nil {
		return
	}
	l.log(e)
}

// Close flushes queued messages and closes the global logger.
func Close() {
	mu.Lock()
	l := global
	global = nil
	mu.Unlock()

	if l != nil {
		l.close()
	}
}
