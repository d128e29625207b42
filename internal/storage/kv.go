package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrEmptyKey is returned for operations on an empty key.
var ErrEmptyKey = errors.New("empty storage key")

// KV is one dock's view of the store.
type KV struct {
	s    *Store
	dock string
}

// Scope returns the key-value view for dock.
func (s *Store) Scope(dock string) *KV {
	return &KV{s: s, dock: dock}
}

// Get returns the value stored under key.
func (kv *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	var v []byte
	err := kv.s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE dock = ? AND key = ?`, kv.dock, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

// Set stores value under key, replacing any previous value.
func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}
	_, err := kv.s.db.ExecContext(ctx, `
		INSERT INTO kv (dock, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (dock, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kv.dock, key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (kv *KV) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := kv.s.db.ExecContext(ctx,
		`DELETE FROM kv WHERE dock = ? AND key = ?`, kv.dock, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Keys returns the dock's keys in sorted order.
func (kv *KV) Keys(ctx context.Context) ([]string, error) {
	return keys(ctx, kv.s.db, "kv", kv.dock)
}

func keys(ctx context.Context, db *sql.DB, table, dock string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT key FROM `+table+` WHERE dock = ? ORDER BY key`, dock)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
