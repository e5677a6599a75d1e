package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/store"
)

type historyEntry struct {
	UID            string `json:"uid"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	ContextPreview string `json:"context_preview"`
	TopK           int    `json:"top_k"`
	ChunkIndices   []int  `json:"chunk_indices"`
	CreatedTs      int64  `json:"created_ts"`
}

type historyResponse struct {
	Entries []*historyEntry `json:"entries"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	Limit   int             `json:"limit"`
}

// History returns the caller's question history, newest first. An optional
// date parameter (YYYY-MM-DD, UTC) restricts it to one day.
func (s *APIV1Service) History(c echo.Context) error {
	userID := currentUserID(c)

	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		return respondError(c, apperr.InvalidArgument("offset must be a non-negative integer"))
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil || limit <= 0 {
		return respondError(c, apperr.InvalidArgument("limit must be a positive integer"))
	}
	if limit > s.Profile.HistoryPageMax {
		limit = s.Profile.HistoryPageMax
	}

	ctx := c.Request().Context()
	var records []*store.QuestionRecord
	var total int
	if date := c.QueryParam("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return respondError(c, apperr.InvalidArgument("date must be formatted as YYYY-MM-DD"))
		}
		records, total, err = s.Store.ListQuestionRecordsForDate(ctx, userID, date, offset, limit)
	} else {
		records, total, err = s.Store.ListQuestionRecords(ctx, &store.FindQuestionRecord{
			CreatorID: userID,
			Offset:    offset,
			Limit:     limit,
		})
	}
	if err != nil {
		return respondError(c, err)
	}

	entries := make([]*historyEntry, len(records))
	for i, record := range records {
		entries[i] = &historyEntry{
			UID:            record.UID,
			Question:       record.Question,
			Answer:         record.Answer,
			ContextPreview: record.ContextPreview,
			TopK:           record.TopK,
			ChunkIndices:   record.ChunkIndices,
			CreatedTs:      record.CreatedTs,
		}
	}

	return respond(c, http.StatusOK, &historyResponse{
		Entries: entries,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
	}, "OK")
}

type usageResponse struct {
	Date      string `json:"date"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Usage reports the caller's question quota for the current UTC day.
func (s *APIV1Service) Usage(c echo.Context) error {
	userID := currentUserID(c)
	date := store.UsageDate(time.Now())

	used, err := s.Store.GetUsage(c.Request().Context(), userID, date)
	if err != nil {
		return respondError(c, err)
	}

	remaining := s.Profile.DailyQuestionLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return respond(c, http.StatusOK, &usageResponse{
		Date:      date,
		Used:      used,
		Limit:     s.Profile.DailyQuestionLimit,
		Remaining: remaining,
	}, "OK")
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
