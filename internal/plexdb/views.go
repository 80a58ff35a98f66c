package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const viewColumns = `id, account_id, guid, metadata_type, library_section_id,
        grandparent_title, parent_index, parent_title, "index", title,
        viewed_at, grandparent_guid, device_id`

// InsertPlay appends one play-history row for a track.
func (d *DB) InsertPlay(ctx context.Context, play PlayRow) error {
	_, err := d.db.ExecContext(ctx, `INSERT INTO metadata_item_views
        (account_id, guid, metadata_type, library_section_id,
         grandparent_title, parent_index, parent_title, "index", title,
         thumb_url, viewed_at, grandparent_guid, originally_available_at, device_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?, ?, NULL, ?)`,
		play.AccountID,
		play.GUID,
		play.MetadataType,
		play.LibrarySectionID,
		play.GrandparentTitle,
		play.ParentIndex,
		play.ParentTitle,
		play.Index,
		play.Title,
		play.ViewedAt,
		play.GrandparentGUID,
		play.DeviceID,
	)
	if err != nil {
		return fmt.Errorf("insert play: %w", err)
	}
	return nil
}

// ForeignPlays returns track play rows for the account recorded by any device
// other than the given one. These are plays Plex clients logged natively and
// that reverse reconciliation folds back into the remote-derived totals.
func (d *DB) ForeignPlays(ctx context.Context, accountID, deviceID int64) ([]PlayRow, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+viewColumns+`
        FROM metadata_item_views
        WHERE account_id = ? AND metadata_type = ? AND device_id != ?
        ORDER BY viewed_at`,
		accountID, TypeTrack, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("query foreign plays: %w", err)
	}
	defer rows.Close()
	return collectPlays(rows)
}

// DeletePlay removes one play-history row by id.
func (d *DB) DeletePlay(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM metadata_item_views WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete play: %w", err)
	}
	return nil
}

// DeleteOnePlay removes a single play row matching the account, track GUID,
// and timestamp, reporting whether one existed. Used when a processed
// scrobble's propagated play has to be withdrawn.
func (d *DB) DeleteOnePlay(ctx context.Context, accountID int64, guid string, viewedAt int64) (bool, error) {
	var id int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id FROM metadata_item_views
         WHERE account_id = ? AND guid = ? AND viewed_at = ? LIMIT 1`,
		accountID, guid, viewedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find play: %w", err)
	}
	if err := d.DeletePlay(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func collectPlays(rows *sql.Rows) ([]PlayRow, error) {
	var plays []PlayRow
	for rows.Next() {
		var (
			play        PlayRow
			gpTitle     sql.NullString
			parentTitle sql.NullString
			title       sql.NullString
			gpGUID      sql.NullString
			parentIndex sql.NullInt64
			index       sql.NullInt64
			deviceID    sql.NullInt64
		)
		if err := rows.Scan(
			&play.ID,
			&play.AccountID,
			&play.GUID,
			&play.MetadataType,
			&play.LibrarySectionID,
			&gpTitle,
			&parentIndex,
			&parentTitle,
			&index,
			&title,
			&play.ViewedAt,
			&gpGUID,
			&deviceID,
		); err != nil {
			return nil, err
		}
		play.GrandparentTitle = gpTitle.String
		play.ParentTitle = parentTitle.String
		play.Title = title.String
		play.GrandparentGUID = gpGUID.String
		play.ParentIndex = parentIndex.Int64
		play.Index = index.Int64
		play.DeviceID = deviceID.Int64
		plays = append(plays, play)
	}
	return plays, rows.Err()
}
