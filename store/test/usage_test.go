package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/store"
)

func TestCheckAndIncrementUsage(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)
	date := "2026-09-01"

	for i := 1; i <= 3; i++ {
		allowed, count, err := ts.CheckAndIncrementUsage(ctx, user.ID, date, 3)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, i, count)
	}

	// Limit reached: denied and count unchanged.
	allowed, count, err := ts.CheckAndIncrementUsage(ctx, user.ID, date, 3)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 3, count)

	got, err := ts.GetUsage(ctx, user.ID, date)
	require.NoError(t, err)
	require.Equal(t, 3, got)
}

func TestUsageIsolatedByDateAndUser(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	alice := CreateTestingUser(ctx, t, ts)
	bob := CreateTestingUser(ctx, t, ts)

	allowed, _, err := ts.CheckAndIncrementUsage(ctx, alice.ID, "2026-09-01", 1)
	require.NoError(t, err)
	require.True(t, allowed)

	// Same user, next day: fresh counter.
	allowed, count, err := ts.CheckAndIncrementUsage(ctx, alice.ID, "2026-09-02", 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, count)

	// Different user, same day: fresh counter.
	allowed, count, err = ts.CheckAndIncrementUsage(ctx, bob.ID, "2026-09-01", 1)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, count)
}

func TestGetUsageWithoutCounter(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)

	count, err := ts.GetUsage(ctx, user.ID, "2026-01-01")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestCheckAndIncrementUsageConcurrent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)
	date := store.UsageDate(time.Now())

	const workers = 8
	const limit = 3

	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := ts.CheckAndIncrementUsage(ctx, user.ID, date, limit)
			require.NoError(t, err)
			results <- allowed
		}()
	}
	wg.Wait()
	close(results)

	granted := 0
	for allowed := range results {
		if allowed {
			granted++
		}
	}
	require.Equal(t, limit, granted)

	count, err := ts.GetUsage(ctx, user.ID, date)
	require.NoError(t, err)
	require.Equal(t, limit, count)
}
