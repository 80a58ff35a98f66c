package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnsureDevice finds the device row with the given name, creating it with a
// fresh identifier when missing. Plays written under this device id are the
// ones this tool owns and may later reconcile.
func (d *DB) EnsureDevice(ctx context.Context, name string) (int64, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM devices WHERE name = ? LIMIT 1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("find device: %w", err)
	}

	now := time.Now().Unix()
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO devices (identifier, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), name, now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("create device: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("device id: %w", err)
	}
	return id, nil
}
