// secrets.go implements encrypted per-dock storage.
//
// Separated from kv.go because secrets add key management on top of the
// plain table access. Each value is sealed with ChaCha20-Poly1305 under a
// host key kept next to the database with mode 0600. The dock identifier and
// key are bound as additional data, so a sealed value copied to another row
// fails to open.

package storage

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCorruptSecret is returned when a sealed value fails to open.
var ErrCorruptSecret = errors.New("secret cannot be decrypted")

type sealer struct {
	aead cipher.AEAD
}

// loadSealer reads the host key, creating it on first use.
func loadSealer(path string) (sealer, error) {
	key, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		key = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return sealer{}, fmt.Errorf("generate secret key: %w", err)
		}
		if err := os.WriteFile(path, key, 0600); err != nil {
			return sealer{}, fmt.Errorf("write secret key: %w", err)
		}
	} else if err != nil {
		return sealer{}, fmt.Errorf("read secret key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return sealer{}, fmt.Errorf("secret key %s: want %d bytes, got %d", path, chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return sealer{}, fmt.Errorf("init cipher: %w", err)
	}
	return sealer{aead: aead}, nil
}

func ad(dock, key string) []byte {
	return []byte(dock + "\x00" + key)
}

func (s sealer) seal(dock, key string, plain []byte) (nonce, sealed []byte, err error) {
	nonce = make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, s.aead.Seal(nil, nonce, plain, ad(dock, key)), nil
}

func (s sealer) open(dock, key string, nonce, sealed []byte) ([]byte, error) {
	plain, err := s.aead.Open(nil, nonce, sealed, ad(dock, key))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, ErrCorruptSecret)
	}
	if plain == nil {
		plain = []byte{}
	}
	return plain, nil
}

// Secrets is one dock's encrypted view of the store.
type Secrets struct {
	s    *Store
	dock string
}

// Secrets returns the encrypted key-value view for dock.
func (s *Store) Secrets(dock string) *Secrets {
	return &Secrets{s: s, dock: dock}
}

// Get returns the decrypted value stored under key.
func (sc *Secrets) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	var nonce, sealed []byte
	err := sc.s.db.QueryRowContext(ctx,
		`SELECT nonce, sealed FROM secrets WHERE dock = ? AND key = ?`, sc.dock, key).Scan(&nonce, &sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get secret %s: %w", key, err)
	}
	plain, err := sc.s.seal.open(sc.dock, key, nonce, sealed)
	if err != nil {
		return nil, false, err
	}
	return plain, true, nil
}

// Set encrypts and stores value under key.
func (sc *Secrets) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	nonce, sealed, err := sc.s.seal.seal(sc.dock, key, value)
	if err != nil {
		return err
	}
	_, err = sc.s.db.ExecContext(ctx, `
		INSERT INTO secrets (dock, key, nonce, sealed, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (dock, key) DO UPDATE SET nonce = excluded.nonce, sealed = excluded.sealed,
			updated_at = excluded.updated_at`,
		sc.dock, key, nonce, sealed, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set secret %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (sc *Secrets) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := sc.s.db.ExecContext(ctx,
		`DELETE FROM secrets WHERE dock = ? AND key = ?`, sc.dock, key); err != nil {
		return fmt.Errorf("delete secret %s: %w", key, err)
	}
	return nil
}

// Keys returns the names of the dock's secrets in sorted order.
func (sc *Secrets) Keys(ctx context.Context) ([]string, error) {
	return keys(ctx, sc.s.db, "secrets", sc.dock)
}
