package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// CheckAndIncrementUsage performs the read-check-write sequence inside one
// transaction. The INSERT takes SQLite's write lock up front, so two racing
// callers are fully serialized and only one can consume the last slot.
func (d *DB) CheckAndIncrementUsage(ctx context.Context, userID int32, date string, limit int) (bool, int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO usage_counter (user_id, date, count)
		VALUES (?, ?, 0)
		ON CONFLICT (user_id, date) DO NOTHING
	`, userID, date); err != nil {
		return false, 0, errors.Wrap(err, "failed to ensure usage counter")
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE usage_counter
		SET count = count + 1
		WHERE user_id = ? AND date = ? AND count < ?
	`, userID, date, limit)
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to increment usage counter")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `
		SELECT count FROM usage_counter WHERE user_id = ? AND date = ?
	`, userID, date).Scan(&count); err != nil {
		return false, 0, errors.Wrap(err, "failed to read usage counter")
	}

	if err := tx.Commit(); err != nil {
		return false, 0, errors.Wrap(err, "failed to commit usage counter")
	}
	return affected > 0, count, nil
}

func (d *DB) GetUsage(ctx context.Context, userID int32, date string) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `
		SELECT count FROM usage_counter WHERE user_id = ? AND date = ?
	`, userID, date).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get usage counter")
	}
	return count, nil
}
