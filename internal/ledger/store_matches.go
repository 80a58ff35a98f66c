package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateMatch records that a concat key resolves to a catalog track row
// (or to the no-match sentinel). Re-recording an existing key overwrites its
// target, keeping the operation retry-safe.
func (s *Store) CreateMatch(ctx context.Context, concatKey string, plexID int64) (*Match, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matches (concat_key, plex_id) VALUES (?, ?)
         ON CONFLICT (concat_key) DO UPDATE SET plex_id = excluded.plex_id`,
		concatKey, plexID,
	)
	if err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	return s.MatchByKey(ctx, concatKey)
}

// MatchByID fetches one match, or nil when absent.
func (s *Store) MatchByID(ctx context.Context, id int64) (*Match, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, concat_key, plex_id FROM matches WHERE id = ?`, id)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	return match, nil
}

// MatchByKey finds a match by concat key, compared case-insensitively.
func (s *Store) MatchByKey(ctx context.Context, concatKey string) (*Match, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, concat_key, plex_id FROM matches WHERE lower(concat_key) = lower(?) LIMIT 1`, concatKey)
	match, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("match by key: %w", err)
	}
	return match, nil
}

// MatchesForPlexID returns every match bound to a catalog track row.
func (s *Store) MatchesForPlexID(ctx context.Context, plexID int64) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, concat_key, plex_id FROM matches WHERE plex_id = ? ORDER BY id`, plexID)
	if err != nil {
		return nil, fmt.Errorf("matches for track: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *match)
	}
	return matches, rows.Err()
}

// DeleteMatch removes one match row.
func (s *Store) DeleteMatch(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	return nil
}

// DeleteOrphanMatches removes matches with zero linked scrobbles, e.g. ones
// whose scrobbles were later deduplicated away. Runs as an independent sweep.
func (s *Store) DeleteOrphanMatches(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM matches WHERE id NOT IN
            (SELECT DISTINCT match_id FROM scrobbles WHERE match_id IS NOT NULL)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphan matches: %w", err)
	}
	return res.RowsAffected()
}

func scanMatch(scanner interface{ Scan(dest ...any) error }) (*Match, error) {
	var match Match
	if err := scanner.Scan(&match.ID, &match.ConcatKey, &match.PlexID); err != nil {
		return nil, err
	}
	return &match, nil
}
