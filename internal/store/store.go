// Package store persists finished scan records in a local SQLite database.
//
// The store is a plain keyed record collection: insert once per successful
// batch, later mutations limited to title edits, destroyed only by explicit
// deletion. Operations are best-effort synchronous; callers surface
// failures instead of retrying.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"medscan/pkg/models"
)

// ErrNotFound is returned when no record matches the given identifier.
var ErrNotFound = errors.New("report not found")

// Store is a SQLite-backed report store.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the store at path. If path is empty, it defaults
// to ~/.medscan/reports.db.
func Open(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".medscan", "reports.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id          TEXT PRIMARY KEY,
			created_at  DATETIME NOT NULL,
			title       TEXT NOT NULL,
			ocr_text    TEXT NOT NULL,
			summary     TEXT NOT NULL DEFAULT '',
			pdf         BLOB,
			page_count  INTEGER NOT NULL DEFAULT 0,
			owner_email TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_owner ON reports(owner_email, created_at DESC);
	`)
	return err
}

// Insert persists a new report.
func (s *Store) Insert(ctx context.Context, r *models.Report) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, created_at, title, ocr_text, summary, pdf, page_count, owner_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt.UTC(), r.Title, r.OCRText, r.Summary, r.PDF, r.PageCount, r.OwnerEmail)
	if err != nil {
		return fmt.Errorf("inserting report %s: %w", r.ID, err)
	}
	return nil
}

// Get fetches a single report by identifier, including its artifact.
func (s *Store) Get(ctx context.Context, id string) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, title, ocr_text, summary, pdf, page_count, owner_email
		FROM reports WHERE id = ?`, id)

	var r models.Report
	var createdAt time.Time
	err := row.Scan(&r.ID, &createdAt, &r.Title, &r.OCRText, &r.Summary, &r.PDF, &r.PageCount, &r.OwnerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching report %s: %w", id, err)
	}
	r.CreatedAt = createdAt.Local()
	return &r, nil
}

// List returns the owner's reports, newest first, without artifact blobs.
// A non-empty query filters titles case-insensitively.
func (s *Store) List(ctx context.Context, owner, query string) ([]*models.Report, error) {
	owner = strings.ToLower(strings.TrimSpace(owner))

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, title, summary, page_count, owner_email
		FROM reports
		WHERE owner_email = ? AND (? = '' OR title LIKE '%' || ? || '%' COLLATE NOCASE)
		ORDER BY created_at DESC`,
		owner, query, query)
	if err != nil {
		return nil, fmt.Errorf("listing reports for %s: %w", owner, err)
	}
	defer rows.Close()

	var out []*models.Report
	for rows.Next() {
		var r models.Report
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &createdAt, &r.Title, &r.Summary, &r.PageCount, &r.OwnerEmail); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		r.CreatedAt = createdAt.Local()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// UpdateTitle renames a report. Title edits are the only mutation a
// persisted record supports.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reports SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("renaming report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a report permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
