package retrieval

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperr "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/server/ai"
	"github.com/askdoc/askdoc/store"
	storetest "github.com/askdoc/askdoc/store/test"
)

func newTestingEngine(t *testing.T, ts *store.Store, dailyLimit int) (*Engine, ai.Embedder) {
	embedder, err := ai.NewFakeEmbedder(8)
	require.NoError(t, err)
	engine := NewEngine(ts, embedder, &profile.Profile{
		TopKDefault:        3,
		TopKMax:            10,
		DailyQuestionLimit: dailyLimit,
	})
	return engine, embedder
}

// readyDocument creates a ready document whose chunks are embedded with the
// same fake embedder the engine uses, so a question equal to a chunk's text
// retrieves that chunk first.
func readyDocument(ctx context.Context, t *testing.T, ts *store.Store, embedder ai.Embedder, creatorID int32, uid string, texts []string) *store.Document {
	doc := storetest.CreateTestingDocument(ctx, t, ts, creatorID, uid)

	vectors, err := embedder.Embed(ctx, texts)
	require.NoError(t, err)

	chunks := make([]*store.DocumentChunk, len(texts))
	offset := 0
	for i, text := range texts {
		chunks[i] = &store.DocumentChunk{
			DocID:       doc.ID,
			ChunkIndex:  i,
			Text:        text,
			StartOffset: offset,
			EndOffset:   offset + len([]rune(text)),
			Embedding:   vectors[i],
		}
		offset += len([]rune(text))
	}
	require.NoError(t, ts.ReplaceDocumentChunks(ctx, doc.ID, chunks))

	claimed, err := ts.ClaimDocumentForProcessing(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	processing := store.DocumentStatusProcessing
	chunkCount, dim := len(texts), embedder.Dimension()
	updated, err := ts.UpdateDocumentStatus(ctx, &store.UpdateDocumentStatus{
		ID:           doc.ID,
		FromStatus:   &processing,
		ToStatus:     store.DocumentStatusReady,
		ChunkCount:   &chunkCount,
		EmbeddingDim: &dim,
	})
	require.NoError(t, err)
	require.True(t, updated)
	return doc
}

func TestAskReturnsMatchingChunkFirst(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, embedder := newTestingEngine(t, ts, 20)

	texts := []string{
		"the capital of france is paris",
		"go is a statically typed language",
		"water boils at one hundred degrees",
	}
	doc := readyDocument(ctx, t, ts, embedder, user.ID, "ask-match", texts)

	result, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   doc.UID,
		Question: "go is a statically typed language",
		TopK:     2,
	})
	require.NoError(t, err)
	require.Len(t, result.Context, 2)
	require.Equal(t, texts[1], result.Context[0])
	require.Equal(t, 1, result.ChunkIndices[0])
	require.Contains(t, result.Answer, "This is a stubbed answer for: 'go is a statically typed language'")
	require.NotEmpty(t, result.RecordUID)
	require.Equal(t, 1, result.UsedToday)
}

func TestAskRecordsHistory(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, embedder := newTestingEngine(t, ts, 20)
	doc := readyDocument(ctx, t, ts, embedder, user.ID, "ask-history", []string{"alpha", "beta"})

	result, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   doc.UID,
		Question: "what is alpha",
	})
	require.NoError(t, err)

	records, total, err := ts.ListQuestionRecords(ctx, &store.FindQuestionRecord{
		CreatorID: user.ID,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, result.RecordUID, records[0].UID)
	require.Equal(t, "what is alpha", records[0].Question)
	require.Equal(t, result.Answer, records[0].Answer)
	require.Equal(t, result.ChunkIndices, records[0].ChunkIndices)
}

func TestAskDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, _ := newTestingEngine(t, ts, 20)

	_, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   "no-such-doc",
		Question: "anything at all",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeNotFound))
}

func TestAskOtherUsersDocumentIsNotFound(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	alice := storetest.CreateTestingUser(ctx, t, ts)
	bob := storetest.CreateTestingUser(ctx, t, ts)
	engine, embedder := newTestingEngine(t, ts, 20)
	doc := readyDocument(ctx, t, ts, embedder, alice.ID, "ask-owner", []string{"private text"})

	_, err := engine.Ask(ctx, &AskRequest{
		UserID:   bob.ID,
		DocUID:   doc.UID,
		Question: "what is in here",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeNotFound))
}

func TestAskDocumentNotReady(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, _ := newTestingEngine(t, ts, 20)

	doc := storetest.CreateTestingDocument(ctx, t, ts, user.ID, "ask-pending")

	_, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   doc.UID,
		Question: "too early",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeDocumentNotReady))

	// A failed precondition must not consume quota.
	date := store.UsageDate(time.Now())
	count, err := ts.GetUsage(ctx, user.ID, date)
	require.NoError(t, err)
	require.Zero(t, count)

	// Nor leave a trace in history.
	_, total, err := ts.ListQuestionRecords(ctx, &store.FindQuestionRecord{
		CreatorID: user.ID,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestAskQuotaExceeded(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, embedder := newTestingEngine(t, ts, 2)
	doc := readyDocument(ctx, t, ts, embedder, user.ID, "ask-quota", []string{"some text"})

	for i := 0; i < 2; i++ {
		_, err := engine.Ask(ctx, &AskRequest{
			UserID:   user.ID,
			DocUID:   doc.UID,
			Question: "a fine question",
		})
		require.NoError(t, err)
	}

	_, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   doc.UID,
		Question: "one too many",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeQuotaExceeded))
}

func TestAskRejectsShortQuestion(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, _ := newTestingEngine(t, ts, 20)

	_, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   "whatever",
		Question: "hi",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeInvalidArgument))
}

func TestAskClampsTopK(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	user := storetest.CreateTestingUser(ctx, t, ts)
	engine, embedder := newTestingEngine(t, ts, 20)
	doc := readyDocument(ctx, t, ts, embedder, user.ID, "ask-clamp", []string{"one", "two"})

	// Requested k exceeds both the max and the chunk count.
	result, err := engine.Ask(ctx, &AskRequest{
		UserID:   user.ID,
		DocUID:   doc.UID,
		Question: "give me everything",
		TopK:     50,
	})
	require.NoError(t, err)
	require.Len(t, result.Context, 2)
}

func TestBuildAnswer(t *testing.T) {
	answer := BuildAnswer("what is go", "line one\nline two")
	require.Equal(t, "This is a stubbed answer for: 'what is go'. Context preview: 'line one line two...'", answer)

	long := strings.Repeat("x", 500)
	answer = BuildAnswer("q", long)
	require.Contains(t, answer, strings.Repeat("x", 200)+"...'")
	require.NotContains(t, answer, strings.Repeat("x", 201))
}
