// Package ingestion runs the background pipeline that turns uploaded
// documents into embedded, searchable chunks.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/plugin/textextract"
	"github.com/askdoc/askdoc/plugin/vectorindex"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/store"
)

// embedBatchSize bounds how many chunk texts go into one embed request.
const embedBatchSize = 32

type Runner struct {
	store     *store.Store
	embedder  ai.Embedder
	chunker   *ai.Chunker
	extractor *textextract.Extractor

	interval       time.Duration
	timeout        time.Duration
	staleThreshold time.Duration
}

// NewRunner creates the ingestion runner. Chunking parameters come from the
// profile so tests can shrink them.
func NewRunner(st *store.Store, embedder ai.Embedder, prof *profile.Profile) (*Runner, error) {
	chunker, err := ai.NewChunker(prof.ChunkSize, prof.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Runner{
		store:          st,
		embedder:       embedder,
		chunker:        chunker,
		extractor:      textextract.New(),
		interval:       prof.IngestInterval,
		timeout:        prof.IngestTimeout,
		staleThreshold: prof.StaleThreshold,
	}, nil
}

// Run polls for pending documents until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	// Process once on startup so a restart drains the backlog immediately.
	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("ingestion runner stopped")
			return
		}
	}
}

// RunOnce sweeps stale processing documents, then ingests every pending
// document it can claim.
func (r *Runner) RunOnce(ctx context.Context) {
	r.sweepStale(ctx)

	pendingStatus := store.DocumentStatusPending
	docs, err := r.store.ListDocuments(ctx, &store.FindDocument{Status: &pendingStatus})
	if err != nil {
		slog.Error("failed to list pending documents", "error", err)
		return
	}

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := r.store.ClaimDocumentForProcessing(ctx, doc.ID)
		if err != nil {
			slog.Error("failed to claim document", "doc_id", doc.ID, "error", err)
			continue
		}
		if !claimed {
			// Another worker got there first.
			continue
		}
		r.ingest(ctx, doc)
	}
}

// ingest runs the extract-chunk-embed-store pipeline for one claimed
// document. Any failure marks the document failed with a human-readable
// message; a later upload of the same file starts fresh.
func (r *Runner) ingest(ctx context.Context, doc *store.Document) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.process(runCtx, doc); err != nil {
		message := err.Error()
		if runCtx.Err() == context.DeadlineExceeded {
			message = fmt.Sprintf("ingestion timed out after %s", r.timeout)
		}
		r.markFailed(ctx, doc.ID, message)
		slog.Error("document ingestion failed",
			"doc_id", doc.ID,
			"uid", doc.UID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return
	}
	slog.Info("document ingested",
		"doc_id", doc.ID,
		"uid", doc.UID,
		"duration_ms", time.Since(start).Milliseconds())
}

func (r *Runner) process(ctx context.Context, doc *store.Document) error {
	data, err := os.ReadFile(doc.FilePath)
	if err != nil {
		return apperr.Wrap(err, apperr.ErrCodeCorruptFile, "failed to read uploaded file")
	}

	text, err := r.extractor.Extract(data, textextract.Format(doc.Format))
	if err != nil {
		return err
	}

	chunks := r.chunker.Chunk(text)
	if len(chunks) == 0 {
		return apperr.CorruptFile("document contains no extractable text", nil)
	}

	vectors, err := r.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	// Building the index validates dimensions and catches degenerate input
	// before anything is persisted.
	if _, err := vectorindex.New(vectors); err != nil {
		return err
	}

	stored := make([]*store.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		stored[i] = &store.DocumentChunk{
			DocID:       doc.ID,
			ChunkIndex:  chunk.Index,
			Text:        chunk.Text,
			StartOffset: chunk.Start,
			EndOffset:   chunk.End,
			Embedding:   vectors[i],
		}
	}
	if err := r.store.ReplaceDocumentChunks(ctx, doc.ID, stored); err != nil {
		return err
	}

	processingStatus := store.DocumentStatusProcessing
	chunkCount := len(chunks)
	dim := r.embedder.Dimension()
	updated, err := r.store.UpdateDocumentStatus(ctx, &store.UpdateDocumentStatus{
		ID:           doc.ID,
		FromStatus:   &processingStatus,
		ToStatus:     store.DocumentStatusReady,
		ChunkCount:   &chunkCount,
		EmbeddingDim: &dim,
	})
	if err != nil {
		return err
	}
	if !updated {
		return apperr.ConcurrencyConflict("document left processing state during ingestion", nil)
	}
	return nil
}

func (r *Runner) embedChunks(ctx context.Context, chunks []ai.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for i := 0; i < len(chunks); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		texts := make([]string, 0, end-i)
		for _, chunk := range chunks[i:end] {
			texts = append(texts, chunk.Text)
		}
		batch, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, apperr.Embedding(fmt.Sprintf("failed to embed chunks %d-%d", i, end-1), err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// markFailed moves a document to failed regardless of its current status.
func (r *Runner) markFailed(ctx context.Context, docID int32, message string) {
	if _, err := r.store.UpdateDocumentStatus(ctx, &store.UpdateDocumentStatus{
		ID:           docID,
		ToStatus:     store.DocumentStatusFailed,
		ErrorMessage: &message,
	}); err != nil {
		slog.Error("failed to mark document failed", "doc_id", docID, "error", err)
	}
}

// sweepStale fails processing documents that have not progressed within the
// stale threshold, typically left behind by a crashed worker.
func (r *Runner) sweepStale(ctx context.Context) {
	processingStatus := store.DocumentStatusProcessing
	cutoff := time.Now().Add(-r.staleThreshold).Unix()
	docs, err := r.store.ListDocuments(ctx, &store.FindDocument{
		Status:        &processingStatus,
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		slog.Error("failed to list stale documents", "error", err)
		return
	}

	for _, doc := range docs {
		message := fmt.Sprintf("ingestion abandoned after %s in processing state", r.staleThreshold)
		updated, err := r.store.UpdateDocumentStatus(ctx, &store.UpdateDocumentStatus{
			ID:           doc.ID,
			FromStatus:   &processingStatus,
			ToStatus:     store.DocumentStatusFailed,
			ErrorMessage: &message,
		})
		if err != nil {
			slog.Error("failed to sweep stale document", "doc_id", doc.ID, "error", err)
			continue
		}
		if updated {
			slog.Warn("stale processing document failed", "doc_id", doc.ID, "uid", doc.UID)
		}
	}
}
