// Package history records fetched and played items in a SQLite database.
// Each item appears once; saving it again updates the existing row.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"musicca/internal/logger"
	"musicca/internal/media"
)

// Actions recorded in history.
const (
	ActionFetch = "fetch"
	ActionPlay  = "play"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS history (
	id         TEXT PRIMARY KEY,
	extractor  TEXT NOT NULL,
	media_id   TEXT NOT NULL,
	url        TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	duration   INTEGER NOT NULL DEFAULT 0,
	position   REAL NOT NULL DEFAULT 0,
	action     TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	UNIQUE(extractor, media_id)
	)`,
	`CREATE INDEX IF NOT EXISTS history_fetched_at ON history(fetched_at DESC)`,
}

// Store is the history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	// One connection keeps writers from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating history: %w", err)
		}
	}

	logger.Debugf("history opened: %s", path)
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts entry or updates the row for the same extractor and media
// ID. A missing ID or timestamp is filled in. The stored entry is returned.
func (s *Store) Save(ctx context.Context, entry media.HistoryEntry) (media.HistoryEntry, error) {
	if entry.Extractor == "" || entry.MediaID == "" {
		return entry, fmt.Errorf("history entry needs extractor and media id")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now()
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO history (id, extractor, media_id, url, title, duration, position, action, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(extractor, media_id) DO UPDATE SET
			url = excluded.url,
			title = excluded.title,
			duration = excluded.duration,
			position = excluded.position,
			action = excluded.action,
			fetched_at = excluded.fetched_at
		RETURNING id`,
		entry.ID, entry.Extractor, entry.MediaID, entry.URL, entry.Title,
		entry.Duration, entry.Position, entry.Action, entry.FetchedAt.UnixNano(),
	)
	if err := row.Scan(&entry.ID); err != nil {
		return entry, fmt.Errorf("saving history: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, most recent first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]media.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, extractor, media_id, url, title, duration, position, action, fetched_at
		FROM history ORDER BY fetched_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	var entries []media.HistoryEntry
	for rows.Next() {
		var (
			e  media.HistoryEntry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Extractor, &e.MediaID, &e.URL, &e.Title,
			&e.Duration, &e.Position, &e.Action, &ts); err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		e.FetchedAt = time.Unix(0, ts)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return entries, nil
}

// Remove deletes the entry for an extractor and media ID.
func (s *Store) Remove(ctx context.Context, extractor, mediaID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE extractor = ? AND media_id = ?`, extractor, mediaID); err != nil {
		return fmt.Errorf("removing history entry: %w", err)
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

// FormatForDisplay creates one display line per entry.
func FormatForDisplay(entries []media.HistoryEntry) []string {
	items := make([]string, 0, len(entries))
	for _, e := range entries {
		display := fmt.Sprintf("%s  %-5s  %s [%s]",
			e.FetchedAt.Format("2006-01-02 15:04"), e.Action, e.Title, media.FormatDuration(e.Duration))
		if e.Position > 0 && e.Duration > 0 {
			display += fmt.Sprintf(" %.0f%%", min(e.Position/float64(e.Duration)*100, 100))
		}
		items = append(items, display)
	}
	return items
}
