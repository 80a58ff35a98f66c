package plexdb

import (
	"context"
	"database/sql"
	"fmt"
)

// LoadSnapshot reads every track in the music library section, joined upward
// through its album to its artist. original_title carries the per-track
// credited artist (featurings); it falls back to the artist row's title.
func (d *DB) LoadSnapshot(ctx context.Context, sectionID int64) ([]Track, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT
            t.id,
            artist.title,
            t.original_title,
            artist.guid,
            album.title,
            album.guid,
            album."index",
            t.title,
            t."index",
            t.guid
        FROM metadata_items t
        JOIN metadata_items album ON album.id = t.parent_id
        JOIN metadata_items artist ON artist.id = album.parent_id
        WHERE t.metadata_type = ? AND t.library_section_id = ?
        ORDER BY t.id`,
		TypeTrack, sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query library tracks: %w", err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var (
			track        Track
			originalName sql.NullString
			parentIndex  sql.NullInt64
			trackIndex   sql.NullInt64
		)
		if err := rows.Scan(
			&track.RatingKey,
			&track.Artist,
			&originalName,
			&track.GrandparentGUID,
			&track.Album,
			&track.ParentGUID,
			&parentIndex,
			&track.Track,
			&trackIndex,
			&track.GUID,
		); err != nil {
			return nil, err
		}
		track.ArtistFeat = originalName.String
		if track.ArtistFeat == "" {
			track.ArtistFeat = track.Artist
		}
		track.ParentIndex = parentIndex.Int64
		track.TrackIndex = trackIndex.Int64
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}
