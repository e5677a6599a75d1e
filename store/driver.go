package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)

	// Document model related methods.
	CreateDocument(ctx context.Context, create *Document) (*Document, error)
	GetDocument(ctx context.Context, find *FindDocument) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)

	// UpdateDocumentStatus transitions a document between lifecycle states.
	// When update.FromStatus is set the transition is conditional; the returned
	// bool reports whether the row was actually updated. This is the claim
	// primitive for the ingestion worker: only one caller can win the
	// pending -> processing transition for a given document.
	UpdateDocumentStatus(ctx context.Context, update *UpdateDocumentStatus) (bool, error)

	// DocumentChunk model related methods.
	//
	// ReplaceDocumentChunks atomically replaces all chunk rows (text, span and
	// embedding) for a document in a single transaction, so readers never see
	// a partially written index.
	ReplaceDocumentChunks(ctx context.Context, docID int32, chunks []*DocumentChunk) error
	ListDocumentChunks(ctx context.Context, docID int32) ([]*DocumentChunk, error)

	// Usage model related methods.
	//
	// CheckAndIncrementUsage atomically increments the (userID, date) counter
	// iff the current count is below limit. It returns whether the increment
	// was applied and the resulting count. The read-check-write sequence is
	// serialized by the database, never by in-process state.
	CheckAndIncrementUsage(ctx context.Context, userID int32, date string, limit int) (bool, int, error)
	GetUsage(ctx context.Context, userID int32, date string) (int, error)

	// QuestionRecord model related methods.
	CreateQuestionRecord(ctx context.Context, create *QuestionRecord) (*QuestionRecord, error)
	ListQuestionRecords(ctx context.Context, find *FindQuestionRecord) ([]*QuestionRecord, int, error)
}
