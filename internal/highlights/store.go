// Package highlights persists reader highlights per document in SQLite.
// Ranges are stored in structural coordinates so they survive re-rendering
// with a different font size or highlight set.
package highlights

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/layout"
)

// ErrNotFound is returned when deleting a highlight that does not exist.
var ErrNotFound = errors.New("highlight not found")

const schema = `
CREATE TABLE IF NOT EXISTS highlights (
	id         TEXT PRIMARY KEY,
	doc_id     TEXT NOT NULL,
	start_path TEXT NOT NULL,
	end_path   TEXT,
	color      TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS highlights_doc ON highlights(doc_id, created_at);
`

// Saved is a stored highlight.
type Saved struct {
	ID        string        `json:"id"`
	DocID     string        `json:"doc_id"`
	Start     booktree.Path `json:"start"`
	End       booktree.Path `json:"end,omitempty"`
	Color     string        `json:"color"`
	CreatedAt time.Time     `json:"created_at"`
}

// Highlight returns the colorization request for s.
func (s Saved) Highlight() layout.Highlight {
	return layout.Highlight{
		Range: booktree.Range{Start: s.Start, End: s.End},
		Color: s.Color,
	}
}

// Store is a SQLite-backed highlight store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dsn. Use ":memory:" for a
// throwaway store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open highlights db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create highlights schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores h for docID and returns the saved record.
func (s *Store) Add(ctx context.Context, docID string, h layout.Highlight) (Saved, error) {
	if err := Validate(h); err != nil {
		return Saved{}, err
	}
	saved := Saved{
		ID:        uuid.NewString(),
		DocID:     docID,
		Start:     h.Range.Start.Clone(),
		End:       h.Range.End.Clone(),
		Color:     strings.TrimSpace(h.Color),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if saved.Start == nil {
		saved.Start = booktree.Path{}
	}

	var end sql.NullString
	if !h.Range.Open() {
		end = sql.NullString{String: saved.End.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO highlights (id, doc_id, start_path, end_path, color, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		saved.ID, docID, saved.Start.String(), end, saved.Color, saved.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Saved{}, fmt.Errorf("insert highlight: %w", err)
	}
	return saved, nil
}

// List returns the highlights of docID in creation order.
func (s *Store) List(ctx context.Context, docID string) ([]Saved, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, start_path, end_path, color, created_at FROM highlights WHERE doc_id = ? ORDER BY created_at, rowid`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("query highlights: %w", err)
	}
	defer rows.Close()

	out := []Saved{}
	for rows.Next() {
		var (
			saved   Saved
			start   string
			end     sql.NullString
			created int64
		)
		if err := rows.Scan(&saved.ID, &saved.DocID, &start, &end, &saved.Color, &created); err != nil {
			return nil, fmt.Errorf("scan highlight: %w", err)
		}
		if saved.Start, err = booktree.ParsePath(start); err != nil {
			return nil, fmt.Errorf("highlight %s: %w", saved.ID, err)
		}
		if end.Valid {
			if saved.End, err = booktree.ParsePath(end.String); err != nil {
				return nil, fmt.Errorf("highlight %s: %w", saved.ID, err)
			}
		}
		saved.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, saved)
	}
	return out, rows.Err()
}

// Delete removes one highlight of docID.
func (s *Store) Delete(ctx context.Context, docID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE doc_id = ? AND id = ?`, docID, id)
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete highlight: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes every highlight of docID and returns how many were
// deleted.
func (s *Store) DeleteDocument(ctx context.Context, docID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM highlights WHERE doc_id = ?`, docID)
	if err != nil {
		return 0, fmt.Errorf("delete document highlights: %w", err)
	}
	return res.RowsAffected()
}
