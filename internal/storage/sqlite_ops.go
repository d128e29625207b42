// Package storage provides per-dock key-value persistence backed by SQLite.
//
// Every dock sees its own namespace: the dock identifier is part of every
// primary key and is fixed when the scoped view is created, so one dock can
// never read another's keys. Values are opaque bytes. Secrets live in a
// separate table and are sealed with ChaCha20-Poly1305 before they reach
// the database.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register sqlite driver
	_ "modernc.org/sqlite"
)

// File names inside the storage directory.
const (
	DBFile  = "dock.db"
	KeyFile = "secret.key"
)

// Store is the shared database behind every dock's storage.
type Store struct {
	db   *sql.DB
	seal sealer
	dir  string
}

// Open opens (creating if needed) the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	path := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// WAL lets the CLI read while a long-running server writes.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting synchronous mode: %w", err)
	}
	if err := execSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	seal, err := loadSealer(filepath.Join(dir, KeyFile))
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, seal: seal, dir: dir}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Checkpoint writes all WAL data back to the main database file and
// truncates the WAL. Called on graceful shutdown.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

// Tx runs fn in a transaction, committing if it returns nil.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Usage is the number of keys a dock holds.
type Usage struct {
	Keys    int `json:"keys"`
	Secrets int `json:"secrets"`
}

// Usage counts a dock's stored keys and secrets.
func (s *Store) Usage(ctx context.Context, dock string) (Usage, error) {
	var u Usage
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE dock = ?`, dock).Scan(&u.Keys); err != nil {
		return u, fmt.Errorf("count keys: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM secrets WHERE dock = ?`, dock).Scan(&u.Secrets); err != nil {
		return u, fmt.Errorf("count secrets: %w", err)
	}
	return u, nil
}

// Purge removes everything a dock stored and returns the rows deleted.
func (s *Store) Purge(ctx context.Context, dock string) (int64, error) {
	var total int64
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"kv", "secrets"} {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE dock = ?`, dock)
			if err != nil {
				return fmt.Errorf("purge %s: %w", table, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				total += n
			}
		}
		return nil
	})
	return total, err
}
