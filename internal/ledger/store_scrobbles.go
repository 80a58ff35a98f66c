package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const scrobbleColumns = "id, concat_key, artist, album, track, played_at, hash, match_id, status"

// InsertScrobbles appends a batch of scrobbles in order. Rows whose content
// hash already exists are silently dropped; the returned count covers rows
// actually inserted.
func (s *Store) InsertScrobbles(ctx context.Context, scrobbles []Scrobble) (int64, error) {
	if len(scrobbles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO scrobbles
        (concat_key, artist, album, track, played_at, hash, match_id, status)
        VALUES (?, ?, ?, ?, ?, ?, NULL, NULL)
        ON CONFLICT (hash) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, scrobble := range scrobbles {
		res, err := stmt.ExecContext(ctx,
			scrobble.ConcatKey,
			scrobble.Artist,
			scrobble.Album,
			scrobble.Track,
			scrobble.PlayedAt,
			scrobble.Hash,
		)
		if err != nil {
			return 0, fmt.Errorf("insert scrobble: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit inserts: %w", err)
	}
	return inserted, nil
}

// ScrobbleByID fetches one scrobble, or nil when absent.
func (s *Store) ScrobbleByID(ctx context.Context, id int64) (*Scrobble, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE id = ?`, id)
	scrobble, err := scanScrobble(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scrobble: %w", err)
	}
	return scrobble, nil
}

// Unreviewed returns every scrobble without a bound match, oldest first.
func (s *Store) Unreviewed(ctx context.Context) ([]Scrobble, error) {
	return s.queryScrobbles(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE match_id IS NULL ORDER BY id`)
}

// NextUnreviewed returns the oldest unreviewed scrobble, or nil when the
// review queue is empty.
func (s *Store) NextUnreviewed(ctx context.Context) (*Scrobble, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE match_id IS NULL ORDER BY id LIMIT 1`)
	scrobble, err := scanScrobble(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unreviewed: %w", err)
	}
	return scrobble, nil
}

// ScrobblesByStatus returns scrobbles in the given status ordered by play time.
func (s *Store) ScrobblesByStatus(ctx context.Context, status Status) ([]Scrobble, error) {
	if status == StatusUnreviewed {
		return s.queryScrobbles(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE status IS NULL ORDER BY played_at`)
	}
	return s.queryScrobbles(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE status = ? ORDER BY played_at`, string(status))
}

// ScrobblesForMatch returns every scrobble linked to a match.
func (s *Store) ScrobblesForMatch(ctx context.Context, matchID int64) ([]Scrobble, error) {
	return s.queryScrobbles(ctx, `SELECT `+scrobbleColumns+` FROM scrobbles WHERE match_id = ? ORDER BY played_at`, matchID)
}

// BindMatch links one scrobble to a match with the given status.
func (s *Store) BindMatch(ctx context.Context, scrobbleID, matchID int64, status Status) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scrobbles SET match_id = ?, status = ? WHERE id = ?`,
		nullableInt64(matchID), nullableStatus(status), scrobbleID,
	)
	if err != nil {
		return fmt.Errorf("bind match: %w", err)
	}
	return nil
}

// BindMatchByKey links every scrobble carrying the exact concat key to a
// match. Used by manual match decisions, which apply to all plays of a key.
func (s *Store) BindMatchByKey(ctx context.Context, concatKey string, matchID int64, status Status) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scrobbles SET match_id = ?, status = ? WHERE concat_key = ?`,
		nullableInt64(matchID), nullableStatus(status), concatKey,
	)
	if err != nil {
		return 0, fmt.Errorf("bind match by key: %w", err)
	}
	return res.RowsAffected()
}

// ClearMatch returns a scrobble to the unreviewed state.
func (s *Store) ClearMatch(ctx context.Context, scrobbleID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scrobbles SET match_id = NULL, status = NULL WHERE id = ?`, scrobbleID)
	if err != nil {
		return fmt.Errorf("clear match: %w", err)
	}
	return nil
}

// MarkProcessed transitions the given scrobbles to processed.
func (s *Store) MarkProcessed(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `UPDATE scrobbles SET status = 'processed' WHERE id IN (` + makePlaceholders(len(ids)) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// MaxPlayedAt returns the newest play timestamp in the ledger, zero when empty.
// It is the ingestion cursor.
func (s *Store) MaxPlayedAt(ctx context.Context) (int64, error) {
	var max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(played_at) FROM scrobbles`).Scan(&max); err != nil {
		return 0, fmt.Errorf("max played_at: %w", err)
	}
	return max.Int64, nil
}

// PlayedAtRange returns the oldest and newest play timestamps, zeros when the
// ledger is empty.
func (s *Store) PlayedAtRange(ctx context.Context) (int64, int64, error) {
	var min, max sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(played_at), MAX(played_at) FROM scrobbles`).Scan(&min, &max); err != nil {
		return 0, 0, fmt.Errorf("played_at range: %w", err)
	}
	return min.Int64, max.Int64, nil
}

func (s *Store) queryScrobbles(ctx context.Context, query string, args ...any) ([]Scrobble, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scrobbles: %w", err)
	}
	defer rows.Close()

	var scrobbles []Scrobble
	for rows.Next() {
		scrobble, err := scanScrobble(rows)
		if err != nil {
			return nil, err
		}
		scrobbles = append(scrobbles, *scrobble)
	}
	return scrobbles, rows.Err()
}

func scanScrobble(scanner interface{ Scan(dest ...any) error }) (*Scrobble, error) {
	var (
		scrobble Scrobble
		matchID  sql.NullInt64
		status   sql.NullString
	)
	if err := scanner.Scan(
		&scrobble.ID,
		&scrobble.ConcatKey,
		&scrobble.Artist,
		&scrobble.Album,
		&scrobble.Track,
		&scrobble.PlayedAt,
		&scrobble.Hash,
		&matchID,
		&status,
	); err != nil {
		return nil, err
	}
	scrobble.MatchID = matchID.Int64
	scrobble.Status = Status(status.String)
	return &scrobble, nil
}
