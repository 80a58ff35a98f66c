package ledger

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"hexfm/internal/config"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerDBPath())
}

// OpenPath connects to a ledger database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the ledger database file.
func (s *Store) Path() string {
	return s.path
}

// Stats returns ledger counters for dashboard and CLI presentation.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&stats.Scrobbles, `SELECT COUNT(1) FROM scrobbles`},
		{&stats.Matched, `SELECT COUNT(1) FROM scrobbles WHERE status IN ('matched', 'processed')`},
		{&stats.Unreviewed, `SELECT COUNT(1) FROM scrobbles WHERE match_id IS NULL`},
		{&stats.CatalogSize, `SELECT COUNT(1) FROM plex_tracks`},
		{&stats.PendingPlays, `SELECT COUNT(1) FROM scrobbles WHERE status = 'matched'`},
		{&stats.NewTracks, `SELECT COUNT(1) FROM added_tracks`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return Stats{}, fmt.Errorf("ledger stats: %w", err)
		}
	}
	return stats, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableStatus(value Status) any {
	if value == StatusUnreviewed {
		return nil
	}
	return string(value)
}
