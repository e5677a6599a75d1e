package store

import (
	"context"
)

// DocumentChunk represents one retrievable passage of a document together
// with its embedding vector. Chunk indices are contiguous and zero-based
// within a document; the rows for a document are only ever written as a
// whole, inside one transaction, before the document is marked ready.
type DocumentChunk struct {
	DocID       int32
	ChunkIndex  int
	Text        string
	StartOffset int // rune offset into the extracted source text
	EndOffset   int
	Embedding   []float32
}

// ReplaceDocumentChunks atomically replaces the persisted index for a document.
func (s *Store) ReplaceDocumentChunks(ctx context.Context, docID int32, chunks []*DocumentChunk) error {
	return s.driver.ReplaceDocumentChunks(ctx, docID, chunks)
}

// ListDocumentChunks returns all chunks for a document ordered by chunk index.
func (s *Store) ListDocumentChunks(ctx context.Context, docID int32) ([]*DocumentChunk, error) {
	return s.driver.ListDocumentChunks(ctx, docID)
}
