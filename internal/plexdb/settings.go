package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingByGUID fetches the account's counter row for a GUID, or nil when
// absent.
func (d *DB) SettingByGUID(ctx context.Context, accountID int64, guid string) (*Setting, error) {
	var (
		setting      Setting
		viewCount    sql.NullInt64
		lastViewedAt sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, account_id, guid, view_count, last_viewed_at
         FROM metadata_item_settings
         WHERE account_id = ? AND guid = ? LIMIT 1`,
		accountID, guid,
	).Scan(&setting.ID, &setting.AccountID, &setting.GUID, &viewCount, &lastViewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("setting by guid: %w", err)
	}
	setting.ViewCount = viewCount.Int64
	setting.LastViewedAt = lastViewedAt.Int64
	return &setting, nil
}

// EnsureSetting creates an empty counter row for the GUID when the account has
// none yet.
func (d *DB) EnsureSetting(ctx context.Context, accountID int64, guid string) error {
	existing, err := d.SettingByGUID(ctx, accountID, guid)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	now := time.Now().Unix()
	_, err = d.db.ExecContext(ctx, `INSERT INTO metadata_item_settings
        (account_id, guid, view_count, last_viewed_at, created_at, updated_at)
        VALUES (?, ?, 0, NULL, ?, ?)`,
		accountID, guid, now, now,
	)
	if err != nil {
		return fmt.Errorf("create setting: %w", err)
	}
	return nil
}

// SetCounts overwrites the counter row's view count and last-viewed timestamp.
// Absolute values keep repeated propagation runs idempotent.
func (d *DB) SetCounts(ctx context.Context, accountID int64, guid string, viewCount, lastViewedAt int64) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE metadata_item_settings
         SET view_count = ?, last_viewed_at = ?, updated_at = ?
         WHERE account_id = ? AND guid = ?`,
		viewCount, lastViewedAt, time.Now().Unix(), accountID, guid,
	)
	if err != nil {
		return fmt.Errorf("set counts: %w", err)
	}
	return nil
}

// AdjustCount shifts the counter row's view count by delta, clamped at zero.
// A missing row is left alone.
func (d *DB) AdjustCount(ctx context.Context, accountID int64, guid string, delta int64) error {
	_, err := d.db.ExecContext(ctx,
		`UPDATE metadata_item_settings
         SET view_count = MAX(0, view_count + ?), updated_at = ?
         WHERE account_id = ? AND guid = ?`,
		delta, time.Now().Unix(), accountID, guid,
	)
	if err != nil {
		return fmt.Errorf("adjust count: %w", err)
	}
	return nil
}

// DeleteOrphanSettings removes counter rows whose GUID no longer exists in the
// library metadata, returning the count removed.
func (d *DB) DeleteOrphanSettings(ctx context.Context, accountID int64) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM metadata_item_settings
         WHERE account_id = ? AND guid NOT IN (SELECT guid FROM metadata_items WHERE guid IS NOT NULL)`,
		accountID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete orphan settings: %w", err)
	}
	return res.RowsAffected()
}
