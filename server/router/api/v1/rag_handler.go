package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/server/retrieval"
)

type askRequest struct {
	DocUID   string `json:"doc_uid"`
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type askResponse struct {
	Answer       string   `json:"answer"`
	Context      []string `json:"context"`
	ChunkIndices []int    `json:"chunk_indices"`
	UsedToday    int      `json:"used_today"`
	RecordUID    string   `json:"record_uid"`
}

// Ask answers a question against one of the caller's ready documents.
func (s *APIV1Service) Ask(c echo.Context) error {
	req := &askRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, apperr.InvalidArgument("malformed request body"))
	}
	if req.DocUID == "" {
		return respondError(c, apperr.InvalidArgument("doc_uid is required"))
	}

	result, err := s.Engine.Ask(c.Request().Context(), &retrieval.AskRequest{
		UserID:   currentUserID(c),
		DocUID:   req.DocUID,
		Question: req.Question,
		TopK:     req.TopK,
	})
	if err != nil {
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, &askResponse{
		Answer:       result.Answer,
		Context:      result.Context,
		ChunkIndices: result.ChunkIndices,
		UsedToday:    result.UsedToday,
		RecordUID:    result.RecordUID,
	}, "Answer generated successfully.")
}
