package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PlayAggregate is a per-GUID play total derived by joining scrobbles through
// matches to catalog tracks. Count and LastPlayedAt are absolute values meant
// to overwrite whatever the target currently holds.
type PlayAggregate struct {
	GUID         string
	Count        int64
	LastPlayedAt int64
}

// AggregateTrackPlays totals linked scrobbles per track GUID for the given
// catalog track rows.
func (s *Store) AggregateTrackPlays(ctx context.Context, plexIDs []int64) ([]PlayAggregate, error) {
	if len(plexIDs) == 0 {
		return nil, nil
	}
	query := `SELECT p.guid, COUNT(sc.id), MAX(sc.played_at)
        FROM plex_tracks p
        JOIN matches m ON m.plex_id = p.id
        JOIN scrobbles sc ON sc.match_id = m.id
        WHERE p.id IN (` + makePlaceholders(len(plexIDs)) + `)
        GROUP BY p.guid`
	return s.queryAggregates(ctx, query, idArgs(plexIDs)...)
}

// AggregateAlbumPlays totals linked scrobbles per album GUID, covering every
// catalog track that shares an album with the given rows. Siblings are pulled
// in because an album total spans all its tracks, not just the touched ones.
func (s *Store) AggregateAlbumPlays(ctx context.Context, plexIDs []int64) ([]PlayAggregate, error) {
	if len(plexIDs) == 0 {
		return nil, nil
	}
	query := `SELECT p.parent_guid, COUNT(sc.id), MAX(sc.played_at)
        FROM plex_tracks p
        JOIN matches m ON m.plex_id = p.id
        JOIN scrobbles sc ON sc.match_id = m.id
        WHERE p.parent_guid IN
            (SELECT DISTINCT parent_guid FROM plex_tracks WHERE id IN (` + makePlaceholders(len(plexIDs)) + `))
        GROUP BY p.parent_guid`
	return s.queryAggregates(ctx, query, idArgs(plexIDs)...)
}

// AggregateArtistPlays totals linked scrobbles per artist GUID, covering every
// catalog track that shares an artist with the given rows.
func (s *Store) AggregateArtistPlays(ctx context.Context, plexIDs []int64) ([]PlayAggregate, error) {
	if len(plexIDs) == 0 {
		return nil, nil
	}
	query := `SELECT p.grandparent_guid, COUNT(sc.id), MAX(sc.played_at)
        FROM plex_tracks p
        JOIN matches m ON m.plex_id = p.id
        JOIN scrobbles sc ON sc.match_id = m.id
        WHERE p.grandparent_guid IN
            (SELECT DISTINCT grandparent_guid FROM plex_tracks WHERE id IN (` + makePlaceholders(len(plexIDs)) + `))
        GROUP BY p.grandparent_guid`
	return s.queryAggregates(ctx, query, idArgs(plexIDs)...)
}

// LookupParentGUID resolves the album GUID of the catalog track carrying the
// given track GUID, artist GUID, and album title. Used when reverse
// reconciliation has to rebuild an album link from a raw play-history row.
func (s *Store) LookupParentGUID(ctx context.Context, guid, grandparentGUID, album string) (string, bool, error) {
	var parentGUID string
	err := s.db.QueryRowContext(ctx,
		`SELECT parent_guid FROM plex_tracks WHERE guid = ? AND grandparent_guid = ? AND album = ? LIMIT 1`,
		guid, grandparentGUID, album,
	).Scan(&parentGUID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup parent guid: %w", err)
	}
	return parentGUID, true, nil
}

func (s *Store) queryAggregates(ctx context.Context, query string, args ...any) ([]PlayAggregate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var aggregates []PlayAggregate
	for rows.Next() {
		var (
			agg    PlayAggregate
			lastAt sql.NullInt64
		)
		if err := rows.Scan(&agg.GUID, &agg.Count, &lastAt); err != nil {
			return nil, err
		}
		agg.LastPlayedAt = lastAt.Int64
		aggregates = append(aggregates, agg)
	}
	return aggregates, rows.Err()
}

func idArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
