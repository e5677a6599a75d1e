// Package test provides store fixtures backed by a throwaway SQLite
// database. Postgres-specific behavior is covered separately in deployments
// that run it.
package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/store"
	"github.com/askdoc/askdoc/store/db"
)

// NewTestingStore creates a migrated store on a fresh SQLite database under
// t.TempDir. The store is closed automatically when the test finishes.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	dataDir := t.TempDir()
	prof := &profile.Profile{
		Mode:               "dev",
		Driver:             "sqlite",
		Data:               dataDir,
		DSN:                filepath.Join(dataDir, "askdoc_test.db"),
		ChunkSize:          500,
		ChunkOverlap:       50,
		EmbeddingDim:       8,
		DailyQuestionLimit: 20,
		IngestInterval:     10 * time.Millisecond,
		IngestTimeout:      time.Minute,
		StaleThreshold:     15 * time.Minute,
	}

	driver, err := db.NewDBDriver(prof)
	require.NoError(t, err)

	ts := store.New(driver, prof)
	require.NoError(t, ts.Migrate(ctx))

	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close testing store: %v", err)
		}
	})
	return ts
}

// CreateTestingUser inserts a user with a unique email.
func CreateTestingUser(ctx context.Context, t *testing.T, ts *store.Store) *store.User {
	user, err := ts.CreateUser(ctx, &store.User{
		Email:        fmt.Sprintf("user-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)
	return user
}

// CreateTestingDocument inserts a pending document owned by creatorID. The
// file path points into the temp dir but no file is written; tests that run
// ingestion write their own bytes first.
func CreateTestingDocument(ctx context.Context, t *testing.T, ts *store.Store, creatorID int32, uid string) *store.Document {
	doc, err := ts.CreateDocument(ctx, &store.Document{
		UID:       uid,
		CreatorID: creatorID,
		Filename:  uid + ".txt",
		Format:    "txt",
		SizeBytes: 0,
		FilePath:  filepath.Join(t.TempDir(), uid+".txt"),
		Status:    store.DocumentStatusPending,
	})
	require.NoError(t, err)
	return doc
}
