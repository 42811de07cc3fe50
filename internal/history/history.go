// Package history provides SQLite storage for past archive searches.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/daviddao/loremutt/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS searches (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	query       TEXT NOT NULL,
	mode        TEXT NOT NULL,
	result_mode TEXT NOT NULL,
	slug        TEXT NOT NULL,
	messages    INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at);
`

// DB wraps a SQLite connection for history operations.
type DB struct {
	conn *sql.DB
	path string
}

// Search is one recorded archive search.
type Search struct {
	ID         int64  `json:"id"`
	Query      string `json:"query"`
	Mode       string `json:"mode"`
	ResultMode string `json:"result_mode"`
	Slug       string `json:"slug"`
	Messages   int    `json:"messages"`
	CreatedAt  string `json:"created_at"`
}

// DefaultPath returns the history database location under the data dir.
func DefaultPath() string {
	return filepath.Join(config.DataDir(), "history.db")
}

// Open opens (or creates) the history database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Record stores a completed search.
func (d *DB) Record(s *Search) error {
	if s.CreatedAt == "" {
		s.CreatedAt = Now()
	}
	res, err := d.conn.Exec(`
		INSERT INTO searches (query, mode, result_mode, slug, messages, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Query, s.Mode, s.ResultMode, s.Slug, s.Messages, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record search: %w", err)
	}
	s.ID, _ = res.LastInsertId()
	return nil
}

// Recent returns the most recent searches, newest first.
func (d *DB) Recent(limit int) ([]Search, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
		SELECT id, query, mode, result_mode, slug, messages, created_at
		FROM searches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}
	defer rows.Close()

	var out []Search
	for rows.Next() {
		var s Search
		if err := rows.Scan(&s.ID, &s.Query, &s.Mode, &s.ResultMode, &s.Slug, &s.Messages, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
