package plexdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"hexfm/internal/config"
)

// ErrNotFound indicates the Plex database file does not exist. The library is
// owned by Plex; this tool never creates it.
var ErrNotFound = errors.New("plex database not found")

// DB wraps direct access to a Plex media server library database.
type DB struct {
	db   *sql.DB
	path string
}

// Open connects to the Plex library database named by the config.
func Open(cfg *config.Config) (*DB, error) {
	return OpenPath(cfg.Account.PlexDBFile)
}

// OpenPath connects to a Plex library database at an explicit location. The
// file must already exist.
func OpenPath(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, dbPath)
		}
		return nil, fmt.Errorf("stat plex db: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open plex db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply busy_timeout: %w", err)
	}

	return &DB{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Path returns the location of the Plex database file.
func (d *DB) Path() string {
	return d.path
}
