package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/store"
)

func TestReplaceAndListDocumentChunks(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)
	doc := CreateTestingDocument(ctx, t, ts, user.ID, "doc-chunks")

	chunks := []*store.DocumentChunk{
		{DocID: doc.ID, ChunkIndex: 0, Text: "first chunk", StartOffset: 0, EndOffset: 11, Embedding: []float32{0.1, 0.2, 0.3}},
		{DocID: doc.ID, ChunkIndex: 1, Text: "second chunk", StartOffset: 9, EndOffset: 21, Embedding: []float32{-0.4, 0.5, 0.6}},
	}
	require.NoError(t, ts.ReplaceDocumentChunks(ctx, doc.ID, chunks))

	got, err := ts.ListDocumentChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "first chunk", got[0].Text)
	require.Equal(t, 0, got[0].ChunkIndex)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, got[0].Embedding)
	require.Equal(t, "second chunk", got[1].Text)
	require.Equal(t, 9, got[1].StartOffset)
	require.Equal(t, 21, got[1].EndOffset)
	require.Equal(t, []float32{-0.4, 0.5, 0.6}, got[1].Embedding)
}

func TestReplaceDocumentChunksOverwrites(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)
	doc := CreateTestingDocument(ctx, t, ts, user.ID, "doc-rechunk")

	first := []*store.DocumentChunk{
		{DocID: doc.ID, ChunkIndex: 0, Text: "old", StartOffset: 0, EndOffset: 3, Embedding: []float32{1, 0}},
		{DocID: doc.ID, ChunkIndex: 1, Text: "old two", StartOffset: 3, EndOffset: 10, Embedding: []float32{0, 1}},
		{DocID: doc.ID, ChunkIndex: 2, Text: "old three", StartOffset: 10, EndOffset: 19, Embedding: []float32{1, 1}},
	}
	require.NoError(t, ts.ReplaceDocumentChunks(ctx, doc.ID, first))

	second := []*store.DocumentChunk{
		{DocID: doc.ID, ChunkIndex: 0, Text: "new", StartOffset: 0, EndOffset: 3, Embedding: []float32{0.5, 0.5}},
	}
	require.NoError(t, ts.ReplaceDocumentChunks(ctx, doc.ID, second))

	got, err := ts.ListDocumentChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "new", got[0].Text)
}

func TestListDocumentChunksOrderedByIndex(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	user := CreateTestingUser(ctx, t, ts)
	doc := CreateTestingDocument(ctx, t, ts, user.ID, "doc-order")

	// Insert out of order; listing must come back sorted.
	chunks := []*store.DocumentChunk{
		{DocID: doc.ID, ChunkIndex: 2, Text: "c", Embedding: []float32{3}},
		{DocID: doc.ID, ChunkIndex: 0, Text: "a", Embedding: []float32{1}},
		{DocID: doc.ID, ChunkIndex: 1, Text: "b", Embedding: []float32{2}},
	}
	require.NoError(t, ts.ReplaceDocumentChunks(ctx, doc.ID, chunks))

	got, err := ts.ListDocumentChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, chunk := range got {
		require.Equal(t, i, chunk.ChunkIndex)
	}
}
