// Package retrieval answers questions against a single ingested document.
package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/plugin/vectorindex"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/server/internal/observability"
	"github.com/askdoc/askdoc/store"
)

const (
	// minQuestionRunes is the shortest question accepted.
	minQuestionRunes = 3
	// answerPreviewRunes bounds the context excerpt embedded in the answer.
	answerPreviewRunes = 200
	// storedPreviewRunes bounds the context preview persisted with history.
	storedPreviewRunes = 300
)

// Engine retrieves relevant chunks for a question and assembles an answer.
type Engine struct {
	store    *store.Store
	embedder ai.Embedder

	topKDefault int
	topKMax     int
	dailyLimit  int
}

// AskRequest carries one question against one of the caller's documents.
type AskRequest struct {
	UserID   int32
	DocUID   string
	Question string
	// TopK is the requested number of context chunks; zero means the
	// configured default.
	TopK int
}

// AskResult is a fully assembled answer with its supporting context.
type AskResult struct {
	RecordUID    string
	Answer       string
	Context      []string
	ChunkIndices []int
	UsedToday    int
}

func NewEngine(st *store.Store, embedder ai.Embedder, prof *profile.Profile) *Engine {
	return &Engine{
		store:       st,
		embedder:    embedder,
		topKDefault: prof.TopKDefault,
		topKMax:     prof.TopKMax,
		dailyLimit:  prof.DailyQuestionLimit,
	}
}

// Ask validates the request, charges the caller's daily quota, and runs
// retrieval over the document's chunks. The quota slot is taken only after
// the document preconditions pass, so asking about a missing or unready
// document costs nothing.
func (e *Engine) Ask(ctx context.Context, req *AskRequest) (*AskResult, error) {
	question := strings.TrimSpace(req.Question)
	if len([]rune(question)) < minQuestionRunes {
		return nil, apperr.InvalidArgument(fmt.Sprintf("question must be at least %d characters", minQuestionRunes))
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.topKDefault
	}
	if topK > e.topKMax {
		topK = e.topKMax
	}

	doc, err := e.store.GetDocument(ctx, &store.FindDocument{
		UID:       &req.DocUID,
		CreatorID: &req.UserID,
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperr.NotFound(fmt.Sprintf("document %q not found", req.DocUID))
	}
	if doc.Status != store.DocumentStatusReady {
		return nil, apperr.DocumentNotReady(string(doc.Status))
	}

	date := store.UsageDate(time.Now())
	allowed, used, err := e.store.CheckAndIncrementUsage(ctx, req.UserID, date, e.dailyLimit)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperr.QuotaExceeded(e.dailyLimit)
	}

	result, err := e.retrieve(ctx, doc, question, topK)
	if err != nil {
		return nil, err
	}
	result.UsedToday = used

	record, err := e.store.CreateQuestionRecord(ctx, &store.QuestionRecord{
		UID:            shortuuid.New(),
		CreatorID:      req.UserID,
		DocID:          doc.ID,
		Question:       question,
		Answer:         result.Answer,
		ContextPreview: truncateRunes(strings.Join(result.Context, "\n"), storedPreviewRunes),
		TopK:           topK,
		ChunkIndices:   result.ChunkIndices,
	})
	if err != nil {
		return nil, err
	}
	result.RecordUID = record.UID

	if reqCtx, ok := observability.FromContext(ctx); ok {
		reqCtx.Info("question answered",
			slog.Int64(observability.LogFieldDocID, int64(doc.ID)),
			slog.String("question_hash", hashText(question)),
			slog.Int("chunks", len(result.Context)),
			slog.Int("used_today", used))
	} else {
		slog.Info("question answered",
			"doc_id", doc.ID,
			"question_hash", hashText(question),
			"chunks", len(result.Context),
			"used_today", used)
	}
	return result, nil
}

func (e *Engine) retrieve(ctx context.Context, doc *store.Document, question string, topK int) (*AskResult, error) {
	vectors, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, apperr.Embedding("failed to embed question", err)
	}
	if len(vectors) != 1 {
		return nil, apperr.Embedding("embedder returned unexpected vector count", nil)
	}

	chunks, err := e.store.ListDocumentChunks(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, apperr.IndexBuild(fmt.Sprintf("ready document %d has no chunks", doc.ID))
	}

	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		embeddings[i] = chunk.Embedding
	}
	index, err := vectorindex.New(embeddings)
	if err != nil {
		return nil, err
	}

	hits, err := index.Search(vectors[0], topK)
	if err != nil {
		return nil, err
	}

	contextTexts := make([]string, len(hits))
	indices := make([]int, len(hits))
	for i, hit := range hits {
		contextTexts[i] = chunks[hit.ChunkIndex].Text
		indices[i] = hit.ChunkIndex
	}

	return &AskResult{
		Answer:       BuildAnswer(question, strings.Join(contextTexts, "\n")),
		Context:      contextTexts,
		ChunkIndices: indices,
	}, nil
}

// BuildAnswer assembles the final answer as a pure function of the question
// and its retrieved context. It is deliberately a stub: swapping in a real
// generation backend means replacing only this function.
func BuildAnswer(question, context string) string {
	preview := strings.ReplaceAll(truncateRunes(context, answerPreviewRunes), "\n", " ")
	return fmt.Sprintf("This is a stubbed answer for: '%s'. Context preview: '%s...'", question, preview)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
