package store

import (
	"context"
	"time"
)

// QuestionRecord is one append-only history entry. Records are never
// mutated or deleted by normal operation.
type QuestionRecord struct {
	ID             int32
	UID            string
	CreatorID      int32
	DocID          int32
	Question       string
	Answer         string
	ContextPreview string
	TopK           int
	ChunkIndices   []int
	CreatedTs      int64
}

// FindQuestionRecord is the find condition for history queries.
// Since/Until bound CreatedTs (epoch seconds, half-open interval).
type FindQuestionRecord struct {
	CreatorID int32
	Since     *int64
	Until     *int64
	Offset    int
	Limit     int
}

// CreateQuestionRecord appends a history entry.
func (s *Store) CreateQuestionRecord(ctx context.Context, create *QuestionRecord) (*QuestionRecord, error) {
	return s.driver.CreateQuestionRecord(ctx, create)
}

// ListQuestionRecords returns a page of history entries newest-first plus
// the total number of matching entries.
func (s *Store) ListQuestionRecords(ctx context.Context, find *FindQuestionRecord) ([]*QuestionRecord, int, error) {
	return s.driver.ListQuestionRecords(ctx, find)
}

// ListQuestionRecordsForDate pages through one UTC calendar day of history.
// date uses the same YYYY-MM-DD format as the usage counter key.
func (s *Store) ListQuestionRecordsForDate(ctx context.Context, creatorID int32, date string, offset, limit int) ([]*QuestionRecord, int, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		return nil, 0, err
	}
	since := day.Unix()
	until := day.Add(24 * time.Hour).Unix()
	return s.driver.ListQuestionRecords(ctx, &FindQuestionRecord{
		CreatorID: creatorID,
		Since:     &since,
		Until:     &until,
		Offset:    offset,
		Limit:     limit,
	})
}
