// book.go keeps notes in the dock's storage.
//
// Separated from notes.go so the persistence rules can be tested without a
// host. Each note is a JSON value under "note/<id>"; identifiers come from
// a counter under "seq" and are never reused.
//
// Design: locking moves a note's text and revisions into secret storage
// and leaves a stub behind, so listings still show the note exists while
// its content is only readable after unlocking.

package notes

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jpl-au/dock/extension"
)

// Errors returned by Book.
var (
	ErrNotFound    = errors.New("note not found")
	ErrEmpty       = errors.New("note text is empty")
	ErrLocked      = errors.New("note is locked")
	ErrNotLocked   = errors.New("note is not locked")
	ErrNoRevisions = errors.New("note has no earlier revision")
	ErrRevision    = errors.New("revision out of range")
)

// MaxRevisions is how many earlier texts a note keeps.
const MaxRevisions = 10

const (
	seqKey     = "seq"
	notePrefix = "note/"
)

// Note is one stored note.
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text,omitempty"`
	Revisions []string  `json:"revisions,omitempty"` // earlier texts, oldest first
	Locked    bool      `json:"locked,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// Title is the first line of the note, shortened for lists.
func (n Note) Title() string {
	if n.Locked {
		return "Locked note " + n.ID
	}
	line, _, _ := strings.Cut(strings.TrimSpace(n.Text), "\n")
	if r := []rune(line); len(r) > 60 {
		line = string(r[:59]) + "…"
	}
	return line
}

// Current is the revision number of the current text.
func (n Note) Current() int {
	return len(n.Revisions) + 1
}

// Revision returns the text of revision rev, counting from 1 for the oldest
// kept revision. Current() returns the current text.
func (n Note) Revision(rev int) (string, error) {
	switch {
	case n.Locked:
		return "", ErrLocked
	case rev < 1 || rev > n.Current():
		return "", fmt.Errorf("%w: %d (have 1-%d)", ErrRevision, rev, n.Current())
	case rev == n.Current():
		return n.Text, nil
	}
	return n.Revisions[rev-1], nil
}

// sealed is what a locked note keeps in secret storage.
type sealed struct {
	Text      string   `json:"text"`
	Revisions []string `json:"revisions,omitempty"`
}

// Book reads and writes notes.
type Book struct {
	store   extension.Storage
	secrets extension.Storage
	now     func() time.Time
}

// NewBook creates a book over a dock's storage and secret storage.
func NewBook(store, secrets extension.Storage, now func() time.Time) *Book {
	return &Book{store: store, secrets: secrets, now: now}
}

func noteKey(id string) string { return notePrefix + id }

func (b *Book) nextID(ctx context.Context) (string, error) {
	n := 0
	v, ok, err := b.store.Get(ctx, seqKey)
	if err != nil {
		return "", fmt.Errorf("read sequence: %w", err)
	}
	if ok {
		if n, err = strconv.Atoi(string(v)); err != nil {
			return "", fmt.Errorf("read sequence: %w", err)
		}
	}
	n++
	if err := b.store.Set(ctx, seqKey, []byte(strconv.Itoa(n))); err != nil {
		return "", fmt.Errorf("write sequence: %w", err)
	}
	return strconv.Itoa(n), nil
}

func (b *Book) put(ctx context.Context, n Note) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode note %s: %w", n.ID, err)
	}
	return b.store.Set(ctx, noteKey(n.ID), data)
}

// Add stores a new note.
func (b *Book) Add(ctx context.Context, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, ErrEmpty
	}
	id, err := b.nextID(ctx)
	if err != nil {
		return Note{}, err
	}
	now := b.now()
	n := Note{ID: id, Text: text, Created: now, Updated: now}
	return n, b.put(ctx, n)
}

// Get returns one note.
func (b *Book) Get(ctx context.Context, id string) (Note, error) {
	data, ok, err := b.store.Get(ctx, noteKey(id))
	if err != nil {
		return Note{}, err
	}
	if !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, fmt.Errorf("decode note %s: %w", id, err)
	}
	return n, nil
}

// List returns every note, most recently updated first.
func (b *Book) List(ctx context.Context) ([]Note, error) {
	keys, err := b.store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	var out []Note
	for _, k := range keys {
		id, ok := strings.CutPrefix(k, notePrefix)
		if !ok {
			continue
		}
		n, err := b.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b Note) int {
		if c := b.Updated.Compare(a.Updated); c != 0 {
			return c
		}
		ai, _ := strconv.Atoi(a.ID)
		bi, _ := strconv.Atoi(b.ID)
		return cmp.Compare(bi, ai)
	})
	return out, nil
}

// Update replaces a note's text, keeping the old text as a revision.
// Writing the same text again changes nothing.
func (b *Book) Update(ctx context.Context, id, text string) (Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Note{}, ErrEmpty
	}
	n, err := b.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if n.Locked {
		return Note{}, fmt.Errorf("%s: %w", id, ErrLocked)
	}
	if n.Text == text {
		return n, nil
	}
	n.Revisions = append(n.Revisions, n.Text)
	if len(n.Revisions) > MaxRevisions {
		n.Revisions = n.Revisions[len(n.Revisions)-MaxRevisions:]
	}
	n.Text = text
	n.Updated = b.now()
	return n, b.put(ctx, n)
}

// Delete removes a note and any sealed content.
func (b *Book) Delete(ctx context.Context, id string) error {
	if _, err := b.Get(ctx, id); err != nil {
		return err
	}
	if err := b.secrets.Delete(ctx, noteKey(id)); err != nil {
		return fmt.Errorf("delete sealed note %s: %w", id, err)
	}
	return b.store.Delete(ctx, noteKey(id))
}

// Lock moves a note's content into secret storage.
func (b *Book) Lock(ctx context.Context, id string) (Note, error) {
	n, err := b.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if n.Locked {
		return Note{}, fmt.Errorf("%s: %w", id, ErrLocked)
	}
	data, err := json.Marshal(sealed{Text: n.Text, Revisions: n.Revisions})
	if err != nil {
		return Note{}, fmt.Errorf("encode sealed note %s: %w", id, err)
	}
	// Seal before clearing the stored text.
	if err := b.secrets.Set(ctx, noteKey(id), data); err != nil {
		return Note{}, fmt.Errorf("seal note %s: %w", id, err)
	}
	n.Text, n.Revisions, n.Locked = "", nil, true
	return n, b.put(ctx, n)
}

// Unlock restores a locked note's content from secret storage.
func (b *Book) Unlock(ctx context.Context, id string) (Note, error) {
	n, err := b.Get(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if !n.Locked {
		return Note{}, fmt.Errorf("%s: %w", id, ErrNotLocked)
	}
	data, ok, err := b.secrets.Get(ctx, noteKey(id))
	if err != nil {
		return Note{}, fmt.Errorf("read sealed note %s: %w", id, err)
	}
	if !ok {
		return Note{}, fmt.Errorf("sealed note %s: %w", id, ErrNotFound)
	}
	var s sealed
	if err := json.Unmarshal(data, &s); err != nil {
		return Note{}, fmt.Errorf("decode sealed note %s: %w", id, err)
	}
	n.Text, n.Revisions, n.Locked = s.Text, s.Revisions, false
	if err := b.put(ctx, n); err != nil {
		return Note{}, err
	}
	return n, b.secrets.Delete(ctx, noteKey(id))
}
