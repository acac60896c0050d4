package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cuetrack/internal/cue"
)

// ErrNotFound is returned when no document is cached for a URL.
var ErrNotFound = errors.New("cached document not found")

// Document is a cached caption document.
type Document struct {
	URL       string
	FetchedAt time.Time
	Cues      []cue.Cue
}

// Entry summarizes a cached document without its cues.
type Entry struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetchedAt"`
	CueCount  int       `json:"cueCount"`
}

// Put replaces the cached copy of url with cues.
func (s *Store) Put(ctx context.Context, url string, cues []cue.Cue) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("cache: url is required")
	}
	fetchedAt := s.now().UTC().Format(time.RFC3339Nano)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin put tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE url = ?", url); err != nil {
			return fmt.Errorf("delete previous document: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (url, fetched_at, cue_count) VALUES (?, ?, ?)",
			url, fetchedAt, len(cues),
		); err != nil {
			return fmt.Errorf("insert document: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO cues (document_url, position, start_seconds, end_seconds, text) VALUES (?, ?, ?, ?, ?)",
		)
		if err != nil {
			return fmt.Errorf("prepare cue insert: %w", err)
		}
		defer stmt.Close()
		for i, c := range cues {
			var end sql.NullFloat64
			if !c.OpenEnded() {
				end = sql.NullFloat64{Float64: c.End, Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, url, i, c.Start, end, c.Text); err != nil {
				return fmt.Errorf("insert cue %d: %w", i, err)
			}
		}
		return tx.Commit()
	})
}

// Get loads the cached document for url.
func (s *Store) Get(ctx context.Context, url string) (*Document, error) {
	doc := &Document{URL: strings.TrimSpace(url)}
	var fetchedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT fetched_at FROM documents WHERE url = ?", doc.URL,
	).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, doc.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	doc.FetchedAt = parseTime(fetchedAt)

	rows, err := s.db.QueryContext(ctx,
		"SELECT start_seconds, end_seconds, text FROM cues WHERE document_url = ? ORDER BY position",
		doc.URL,
	)
	if err != nil {
		return nil, fmt.Errorf("query cues: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			c   cue.Cue
			end sql.NullFloat64
		)
		if err := rows.Scan(&c.Start, &end, &c.Text); err != nil {
			return nil, fmt.Errorf("scan cue: %w", err)
		}
		c.End = math.Inf(1)
		if end.Valid {
			c.End = end.Float64
		}
		doc.Cues = append(doc.Cues, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cues: %w", err)
	}
	return doc, nil
}

// List returns every cached document, most recently fetched first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT url, fetched_at, cue_count FROM documents ORDER BY fetched_at DESC, url",
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			fetchedAt string
		)
		if err := rows.Scan(&e.URL, &fetchedAt, &e.CueCount); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		e.FetchedAt = parseTime(fetchedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the cached copy of url and reports whether one existed.
func (s *Store) Delete(ctx context.Context, url string) (bool, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE url = ?", strings.TrimSpace(url))
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return affected > 0, nil
}

// Clear removes every cached document and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM documents")
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear documents: %w", err)
	}
	return affected, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
