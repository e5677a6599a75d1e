package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// CheckAndIncrementUsage runs the whole check-and-increment inside one
// transaction. The conditional UPDATE takes a row lock, so concurrent callers
// racing for the last slot are serialized and at most one wins it.
func (d *DB) CheckAndIncrementUsage(ctx context.Context, userID int32, date string, limit int) (bool, int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO usage_counter (user_id, date, count)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, date) DO NOTHING
	`, userID, date); err != nil {
		return false, 0, errors.Wrap(err, "failed to ensure usage counter")
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE usage_counter
		SET count = count + 1
		WHERE user_id = $1 AND date = $2 AND count < $3
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
		SELECT count FROM usage_counter WHERE user_id = $1 AND date = $2
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
		SELECT count FROM usage_counter WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get usage counter")
	}
	return count, nil
}
