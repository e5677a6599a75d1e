package store

import (
	"context"
	"time"
)

// UsageDate formats a point in time as the UTC calendar day used as the
// usage counter key. A new day implicitly starts a fresh counter at zero.
func UsageDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CheckAndIncrementUsage atomically consumes one question slot for
// (userID, date) iff the counter is below limit. A race between two
// concurrent requests for the last slot admits exactly one of them.
func (s *Store) CheckAndIncrementUsage(ctx context.Context, userID int32, date string, limit int) (bool, int, error) {
	return s.driver.CheckAndIncrementUsage(ctx, userID, date, limit)
}

// GetUsage returns the current counter value for (userID, date).
func (s *Store) GetUsage(ctx context.Context, userID int32, date string) (int, error) {
	return s.driver.GetUsage(ctx, userID, date)
}
