package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/plugin/vectorindex"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/store"
	storetest "github.com/askdoc/askdoc/store/test"
)

func newTestingRunner(t *testing.T, ts *store.Store) *Runner {
	embedder, err := ai.NewFakeEmbedder(8)
	require.NoError(t, err)

	runner, err := NewRunner(ts, embedder, &profile.Profile{
		ChunkSize:      50,
		ChunkOverlap:   10,
		IngestInterval: 10 * time.Millisecond,
		IngestTimeout:  time.Minute,
		StaleThreshold: 15 * time.Minute,
	})
	require.NoError(t, err)
	return runner
}

func createUploadedDocument(ctx context.Context, t *testing.T, ts *store.Store, creatorID int32, uid, content string) *store.Document {
	path := filepath.Join(t.TempDir(), uid+".txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	doc, err := ts.CreateDocument(ctx, &store.Document{
		UID:       uid,
		CreatorID: creatorID,
		Filename:  uid + ".txt",
		Format:    "txt",
		SizeBytes: int64(len(content)),
		FilePath:  path,
		Status:    store.DocumentStatusPending,
	})
	require.NoError(t, err)
	return doc
}

func TestRunOnceIngestsPendingDocument(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	runner := newTestingRunner(t, ts)

	content := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 5)
	doc := createUploadedDocument(ctx, t, ts, user.ID, "ingest-ok", content)

	runner.RunOnce(ctx)

	got, err := ts.GetDocument(ctx, &store.FindDocument{ID: &doc.ID})
	require.NoError(t, err)
	require.Equal(t, store.DocumentStatusReady, got.Status)
	require.Equal(t, 8, got.EmbeddingDim)
	require.Greater(t, got.ChunkCount, 1)

	chunks, err := ts.ListDocumentChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, chunks, got.ChunkCount)
	for i, chunk := range chunks {
		require.Equal(t, i, chunk.ChunkIndex)
		require.Len(t, chunk.Embedding, 8)
		require.NotEmpty(t, chunk.Text)
	}
}

func TestRunOnceIdenticalBytesYieldIdenticalResults(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	runner := newTestingRunner(t, ts)

	content := strings.Repeat("ingestion must produce the same artifacts for the same bytes. ", 6)
	first := createUploadedDocument(ctx, t, ts, user.ID, "ingest-twin-a", content)
	second := createUploadedDocument(ctx, t, ts, user.ID, "ingest-twin-b", content)

	runner.RunOnce(ctx)

	firstChunks, err := ts.ListDocumentChunks(ctx, first.ID)
	require.NoError(t, err)
	secondChunks, err := ts.ListDocumentChunks(ctx, second.ID)
	require.NoError(t, err)
	require.NotEmpty(t, firstChunks)
	require.Len(t, secondChunks, len(firstChunks))
	for i := range firstChunks {
		require.Equal(t, firstChunks[i].Text, secondChunks[i].Text)
		require.Equal(t, firstChunks[i].StartOffset, secondChunks[i].StartOffset)
		require.Equal(t, firstChunks[i].Embedding, secondChunks[i].Embedding)
	}

	// The same question ranks chunks identically across both documents.
	embedder, err := ai.NewFakeEmbedder(8)
	require.NoError(t, err)
	queries, err := embedder.Embed(ctx, []string{"what do the same bytes produce"})
	require.NoError(t, err)

	rankChunks := func(chunks []*store.DocumentChunk) []int {
		vectors := make([][]float32, len(chunks))
		for i, chunk := range chunks {
			vectors[i] = chunk.Embedding
		}
		idx, err := vectorindex.New(vectors)
		require.NoError(t, err)
		results, err := idx.Search(queries[0], 3)
		require.NoError(t, err)
		ranked := make([]int, len(results))
		for i, result := range results {
			ranked[i] = result.ChunkIndex
		}
		return ranked
	}

	require.Equal(t, rankChunks(firstChunks), rankChunks(secondChunks))
}

func TestRunOnceMarksMissingFileFailed(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	runner := newTestingRunner(t, ts)

	// Document row exists but nothing was written to its file path.
	doc := storetest.CreateTestingDocument(ctx, t, ts, user.ID, "ingest-missing")

	runner.RunOnce(ctx)

	got, err := ts.GetDocument(ctx, &store.FindDocument{ID: &doc.ID})
	require.NoError(t, err)
	require.Equal(t, store.DocumentStatusFailed, got.Status)
	require.NotEmpty(t, got.ErrorMessage)
}

func TestRunOnceMarksEmptyDocumentFailed(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	runner := newTestingRunner(t, ts)

	doc := createUploadedDocument(ctx, t, ts, user.ID, "ingest-empty", "   \n\t ")

	runner.RunOnce(ctx)

	got, err := ts.GetDocument(ctx, &store.FindDocument{ID: &doc.ID})
	require.NoError(t, err)
	require.Equal(t, store.DocumentStatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage, "no extractable text")
}

func TestRunOnceSkipsNonPendingDocuments(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	runner := newTestingRunner(t, ts)

	doc := createUploadedDocument(ctx, t, ts, user.ID, "ingest-claimed", "content")
	claimed, err := ts.ClaimDocumentForProcessing(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	runner.RunOnce(ctx)

	got, err := ts.GetDocument(ctx, &store.FindDocument{ID: &doc.ID})
	require.NoError(t, err)
	require.Equal(t, store.DocumentStatusProcessing, got.Status)
}

func TestSweepStaleFailsAbandonedDocuments(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)

	embedder, err := ai.NewFakeEmbedder(8)
	require.NoError(t, err)
	runner, err := NewRunner(ts, embedder, &profile.Profile{
		ChunkSize:      50,
		ChunkOverlap:   10,
		IngestInterval: 10 * time.Millisecond,
		IngestTimeout:  time.Minute,
		// Zero threshold makes every processing document stale immediately.
		StaleThreshold: 0,
	})
	require.NoError(t, err)

	doc := createUploadedDocument(ctx, t, ts, user.ID, "ingest-stale", "content")
	claimed, err := ts.ClaimDocumentForProcessing(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	// updated_ts granularity is one second.
	time.Sleep(1100 * time.Millisecond)
	runner.sweepStale(ctx)

	got, err := ts.GetDocument(ctx, &store.FindDocument{ID: &doc.ID})
	require.NoError(t, err)
	require.Equal(t, store.DocumentStatusFailed, got.Status)
	require.Contains(t, got.ErrorMessage, "abandoned")
}
