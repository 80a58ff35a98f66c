package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const trackColumns = "id, rating_key, concat_key, artist, artist_feat, grandparent_guid, album, parent_guid, parent_index, track, track_index, guid"

// AllTracks returns the full stored catalog snapshot.
func (s *Store) AllTracks(ctx context.Context) ([]CatalogTrack, error) {
	return s.queryTracks(ctx, `SELECT `+trackColumns+` FROM plex_tracks ORDER BY id`)
}

// TrackByID fetches one catalog track by ledger row id, or nil when absent.
func (s *Store) TrackByID(ctx context.Context, id int64) (*CatalogTrack, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM plex_tracks WHERE id = ?`, id)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get track: %w", err)
	}
	return track, nil
}

// TrackByRatingKey fetches one catalog track by its stable external id.
func (s *Store) TrackByRatingKey(ctx context.Context, ratingKey int64) (*CatalogTrack, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM plex_tracks WHERE rating_key = ?`, ratingKey)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by rating key: %w", err)
	}
	return track, nil
}

// TrackByKey finds a catalog track by concat key, compared case-insensitively.
func (s *Store) TrackByKey(ctx context.Context, concatKey string) (*CatalogTrack, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM plex_tracks WHERE lower(concat_key) = lower(?) LIMIT 1`, concatKey)
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track by key: %w", err)
	}
	return track, nil
}

// UpsertTrack writes a catalog track keyed on rating key, replacing every
// display field when the row already exists.
func (s *Store) UpsertTrack(ctx context.Context, track CatalogTrack) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO plex_tracks
        (rating_key, concat_key, artist, artist_feat, grandparent_guid, album, parent_guid, parent_index, track, track_index, guid)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (rating_key) DO UPDATE SET
            concat_key = excluded.concat_key,
            artist = excluded.artist,
            artist_feat = excluded.artist_feat,
            grandparent_guid = excluded.grandparent_guid,
            album = excluded.album,
            parent_guid = excluded.parent_guid,
            parent_index = excluded.parent_index,
            track = excluded.track,
            track_index = excluded.track_index,
            guid = excluded.guid`,
		track.RatingKey,
		track.ConcatKey,
		track.Artist,
		track.ArtistFeat,
		track.GrandparentGUID,
		track.Album,
		track.ParentGUID,
		track.ParentIndex,
		track.Track,
		track.TrackIndex,
		track.GUID,
	)
	if err != nil {
		return fmt.Errorf("upsert track: %w", err)
	}
	return nil
}

// DeleteTrackByRatingKey removes one catalog track row.
func (s *Store) DeleteTrackByRatingKey(ctx context.Context, ratingKey int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plex_tracks WHERE rating_key = ?`, ratingKey); err != nil {
		return fmt.Errorf("delete track: %w", err)
	}
	return nil
}

// SearchTracks returns catalog tracks whose concat key contains every given
// term, case-insensitively. Used by the manual-match browse flow.
func (s *Store) SearchTracks(ctx context.Context, terms []string, limit int) ([]CatalogTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM plex_tracks`
	var (
		clauses []string
		args    []any
	)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		clauses = append(clauses, `lower(concat_key) LIKE ?`)
		args = append(args, "%"+strings.ToLower(term)+"%")
	}
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY concat_key`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryTracks(ctx, query, args...)
}

// InsertAddedTrack records a newly observed rating key for later review.
func (s *Store) InsertAddedTrack(ctx context.Context, ratingKey int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO added_tracks (rating_key) VALUES (?)`, ratingKey); err != nil {
		return fmt.Errorf("insert added track: %w", err)
	}
	return nil
}

// AddedTracks returns the pending new-track markers, oldest first.
func (s *Store) AddedTracks(ctx context.Context) ([]AddedTrack, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, rating_key FROM added_tracks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query added tracks: %w", err)
	}
	defer rows.Close()

	var added []AddedTrack
	for rows.Next() {
		var a AddedTrack
		if err := rows.Scan(&a.ID, &a.RatingKey); err != nil {
			return nil, err
		}
		added = append(added, a)
	}
	return added, rows.Err()
}

// DeleteAddedTrack acknowledges one new-track marker.
func (s *Store) DeleteAddedTrack(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM added_tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete added track: %w", err)
	}
	return nil
}

// DeleteAddedTracksByRatingKey drops every marker for a rating key, e.g. when
// the track disappears from the catalog before anyone reviewed it.
func (s *Store) DeleteAddedTracksByRatingKey(ctx context.Context, ratingKey int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM added_tracks WHERE rating_key = ?`, ratingKey); err != nil {
		return fmt.Errorf("delete added tracks by rating key: %w", err)
	}
	return nil
}

func (s *Store) queryTracks(ctx context.Context, query string, args ...any) ([]CatalogTrack, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []CatalogTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *track)
	}
	return tracks, rows.Err()
}

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*CatalogTrack, error) {
	var track CatalogTrack
	if err := scanner.Scan(
		&track.ID,
		&track.RatingKey,
		&track.ConcatKey,
		&track.Artist,
		&track.ArtistFeat,
		&track.GrandparentGUID,
		&track.Album,
		&track.ParentGUID,
		&track.ParentIndex,
		&track.Track,
		&track.TrackIndex,
		&track.GUID,
	); err != nil {
		return nil, err
	}
	return &track, nil
}
