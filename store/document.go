package store

import (
	"context"
)

// DocumentStatus is the lifecycle state of an uploaded document.
type DocumentStatus string

const (
	// DocumentStatusPending means the upload is accepted and queued for ingestion.
	DocumentStatusPending DocumentStatus = "pending"
	// DocumentStatusProcessing means an ingestion run has claimed the document.
	DocumentStatusProcessing DocumentStatus = "processing"
	// DocumentStatusReady means the vector index is built and queryable.
	DocumentStatusReady DocumentStatus = "ready"
	// DocumentStatusFailed means ingestion failed; ErrorMessage carries the reason.
	DocumentStatusFailed DocumentStatus = "failed"
)

// Document represents an uploaded document and its ingestion state.
// Ready and failed are terminal; re-ingestion happens only through a new
// upload under a fresh document id.
type Document struct {
	ID        int32
	UID       string
	CreatorID int32
	Filename  string
	Format    string // pdf, txt or md
	SizeBytes int64
	FilePath  string // saved upload, relative to the data directory
	Status    DocumentStatus
	// ErrorMessage is set iff Status is DocumentStatusFailed.
	ErrorMessage string
	ChunkCount   int
	EmbeddingDim int
	CreatedTs    int64
	UpdatedTs    int64
}

// FindDocument is the find condition for documents.
type FindDocument struct {
	ID            *int32
	UID           *string
	CreatorID     *int32
	Status        *DocumentStatus
	UpdatedBefore *int64 // epoch seconds; used by the stale-processing sweep
	Limit         *int
}

// UpdateDocumentStatus is a (conditionally) guarded status transition.
type UpdateDocumentStatus struct {
	ID int32
	// FromStatus, when set, makes the transition conditional: the update only
	// applies if the document currently has this status.
	FromStatus *DocumentStatus
	ToStatus   DocumentStatus

	ErrorMessage *string
	ChunkCount   *int
	EmbeddingDim *int
}

// CreateDocument creates a new document in pending state.
func (s *Store) CreateDocument(ctx context.Context, create *Document) (*Document, error) {
	if create.Status == "" {
		create.Status = DocumentStatusPending
	}
	return s.driver.CreateDocument(ctx, create)
}

// GetDocument finds a single document.
func (s *Store) GetDocument(ctx context.Context, find *FindDocument) (*Document, error) {
	return s.driver.GetDocument(ctx, find)
}

// ListDocuments lists documents matching the find condition.
func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

// UpdateDocumentStatus transitions a document; returns whether the row changed.
func (s *Store) UpdateDocumentStatus(ctx context.Context, update *UpdateDocumentStatus) (bool, error) {
	return s.driver.UpdateDocumentStatus(ctx, update)
}

// ClaimDocumentForProcessing attempts the pending -> processing transition.
// Exactly one concurrent caller wins for a given document, which is what
// makes duplicate ingestion deliveries safe.
func (s *Store) ClaimDocumentForProcessing(ctx context.Context, docID int32) (bool, error) {
	from := DocumentStatusPending
	return s.driver.UpdateDocumentStatus(ctx, &UpdateDocumentStatus{
		ID:         docID,
		FromStatus: &from,
		ToStatus:   DocumentStatusProcessing,
	})
}
