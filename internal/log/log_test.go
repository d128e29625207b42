package log

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDB(t *testing.T) {
	t.Helper()
	tmpDir := t.TempDir()
	origDBPath := dbPathFunc
	dbPathFunc = func() string {
		return filepath.Join(tmpDir, "log", "test.db")
	}
	t.Cleanup(func() {
		Close()
		dbPathFunc = origDBPath
	})
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", DBPath())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogger(t *testing.T) {
	useTempDB(t)

	t.Run("open and close", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()
		assert.FileExists(t, DBPath())
	})

	t.Run("log entry", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()
		SetProject("/test/project/.dock")

		Log(Entry{
			Source:  "lifecycle",
			Action:  "load",
			Dock:    "com.example.clock",
			Success: true,
		})

		var source, action, dock string
		var success int
		err := openDB(t).QueryRow("SELECT source, action, dock, success FROM log ORDER BY id DESC LIMIT 1").
			Scan(&source, &action, &dock, &success)
		require.NoError(t, err)
		assert.Equal(t, "lifecycle", source)
		assert.Equal(t, "load", action)
		assert.Equal(t, "com.example.clock", dock)
		assert.Equal(t, 1, success)
	})

	t.Run("log without logger is noop", func(t *testing.T) {
		Close()
		Log(Entry{Source: "test", Action: "test", Success: true})
		Message(LevelInfo, "test", "nobody listening")
	})

	t.Run("open is idempotent", func(t *testing.T) {
		require.NoError(t, Open())
		require.NoError(t, Open())
		Close()
	})
}

func TestBuilder(t *testing.T) {
	useTempDB(t)

	t.Run("success", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("lifecycle", "activate").Dock("com.example.notes").Write(nil)

		var action, dock string
		var success int
		err := openDB(t).QueryRow("SELECT action, dock, success FROM log ORDER BY id DESC LIMIT 1").
			Scan(&action, &dock, &success)
		require.NoError(t, err)
		assert.Equal(t, "activate", action)
		assert.Equal(t, "com.example.notes", dock)
		assert.Equal(t, 1, success)
	})

	t.Run("with error", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("lifecycle", "load").Dock("bad").Write(sql.ErrNoRows)

		var success int
		var errMsg string
		err := openDB(t).QueryRow("SELECT success, error FROM log ORDER BY id DESC LIMIT 1").
			Scan(&success, &errMsg)
		require.NoError(t, err)
		assert.Equal(t, 0, success)
		assert.Equal(t, sql.ErrNoRows.Error(), errMsg)
	})

	t.Run("with detail", func(t *testing.T) {
		require.NoError(t, Open())
		defer Close()

		Event("palette", "search").
			Detail("query", "time").
			Detail("count", 42).
			Write(nil)

		var detail string
		err := openDB(t).QueryRow("SELECT detail FROM log ORDER BY id DESC LIMIT 1").Scan(&detail)
		require.NoError(t, err)
		assert.Contains(t, detail, "time")
		assert.Contains(t, detail, "42")
	})
}

func TestMessage(t *testing.T) {
	useTempDB(t)
	require.NoError(t, Open())

	Source("com.example.clock").Info("tick")
	Source("com.example.clock").Error("tock")
	Message(LevelWarning, "com.example.notes", "other")

	// Close flushes the queue.
	Close()
	require.NoError(t, Open())
	defer Close()

	recs, err := Messages(10, "com.example.clock")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "tock", recs[0].Message)
	assert.Equal(t, LevelError, recs[0].Level)
	assert.Equal(t, "tick", recs[1].Message)

	recs, err = Messages(10, "")
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Zero(t, Dropped())
}

func TestEcho(t *testing.T) {
	var buf bytes.Buffer
	SetEcho(&buf, LevelWarning)
	defer SetEcho(nil, LevelWarning)

	Message(LevelInfo, "src", "quiet")
	Message(LevelError, "src", "loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "dock: error [src] loud")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warn", LevelWarning, true},
		{"warning", LevelWarning, true},
		{"error", LevelError, true},
		{"loud", LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestHash(t *testing.T) {
	h1 := hash("/home/user/project/.dock")
	h2 := hash("/home/user/project/.dock")
	h3 := hash("/home/user/other/.dock")

	assert.Equal(t, h1, h2, "same input should produce same hash")
	assert.NotEqual(t, h1, h3, "different input should produce different hash")
	assert.Len(t, h1, 16, "BLAKE2b-64 should produce 16 hex chars")
}

func TestDBPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	origDBPath := dbPathFunc
	dbPathFunc = defaultDBPath
	defer func() { dbPathFunc = origDBPath }()

	assert.Equal(t, filepath.Join(home, ".dock", "log", "dock-log.db"), DBPath())
}
