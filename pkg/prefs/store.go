package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// SidebarWidthKey stores the width of the tree column, in pixels.
	SidebarWidthKey = "assets-timeline-sidebar-width"
	// DefaultSidebarWidth is used when no valid width has been stored.
	DefaultSidebarWidth = 306
	// MinSidebarWidth keeps the tree column usable when resizing.
	MinSidebarWidth = 120
)

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("preference not found")

// Store persists UI preferences as key/value pairs in sqlite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the preferences database in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "prefs.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize preferences: %w", err)
	}
	return s, nil
}

// init creates the database schema
func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prefs (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored value for key.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO prefs (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM prefs WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// All returns every stored preference.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM prefs ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("list prefs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan pref: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list prefs: %w", err)
	}
	return out, nil
}

// SidebarWidth returns the stored sidebar width, or the default when unset
// or unparseable.
func (s *Store) SidebarWidth() int {
	v, err := s.Get(SidebarWidthKey)
	if err != nil {
		return DefaultSidebarWidth
	}
	return ParseSidebarWidth(v)
}

// SetSidebarWidth stores the sidebar width, clamped to MinSidebarWidth.
func (s *Store) SetSidebarWidth(px int) error {
	if px < MinSidebarWidth {
		px = MinSidebarWidth
	}
	return s.Set(SidebarWidthKey, strconv.Itoa(px))
}

// ParseSidebarWidth decodes a stored width, falling back to the default.
func ParseSidebarWidth(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return DefaultSidebarWidth
	}
	return n
}

// Close closes the preferences database
func (s *Store) Close() error {
	return s.db.Close()
}
