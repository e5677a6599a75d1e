package ai

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// Config holds the OpenAI embedding provider configuration.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimension  int
	MaxRetries int
	Timeout    time.Duration
}

// DefaultConfig returns the default provider configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimension:  1536,
		MaxRetries: 3,
		Timeout:    30 * time.Second,
	}
}

// OpenAIEmbedder produces embeddings through the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client *openai.Client
	config *Config
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
func NewOpenAIEmbedder(cfg *Config) (*OpenAIEmbedder, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, apperr.Configuration("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 1536
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.config.Dimension
}

// Embed sends all texts in a single batched request and returns the vectors
// in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = truncateForEmbedding(text)
	}

	var vectors [][]float32
	err := e.doWithRetry(ctx, func() error {
		req := openai.EmbeddingRequest{
			Input:      input,
			Model:      openai.EmbeddingModel(e.config.Model),
			Dimensions: e.config.Dimension,
		}
		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(input) {
			return errors.Errorf("expected %d embeddings, got %d", len(input), len(resp.Data))
		}

		vectors = make([][]float32, len(resp.Data))
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(vectors) {
				return errors.Errorf("embedding index %d out of range", item.Index)
			}
			vectors[item.Index] = item.Embedding
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Embedding("embedding request failed", err)
	}

	for i, v := range vectors {
		if len(v) != e.config.Dimension {
			return nil, apperr.Embedding("provider returned unexpected dimension", errors.Errorf("vector %d has dimension %d, expected %d", i, len(v), e.config.Dimension))
		}
	}
	return vectors, nil
}

// Validate checks connectivity by embedding a short probe text.
func (e *OpenAIEmbedder) Validate(ctx context.Context) error {
	if _, err := e.Embed(ctx, []string{"test"}); err != nil {
		return errors.Wrap(err, "embedding validation failed")
	}
	slog.Info("embedding provider validated", "model", e.config.Model, "dimension", e.config.Dimension)
	return nil
}

// doWithRetry executes fn with exponential backoff.
func (e *OpenAIEmbedder) doWithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			if attempt < e.config.MaxRetries-1 {
				waitTime := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				slog.Debug("embedding request failed, retrying",
					"attempt", attempt+1,
					"wait_time", waitTime,
					"error", err)
				select {
				case <-time.After(waitTime):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	return lastErr
}
