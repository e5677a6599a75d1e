package ai

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"math/rand"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// maxEmbedRunes caps the text sent to an embedder. Longer inputs are
// truncated rather than rejected, so a pathological chunk cannot fail a whole
// document.
const maxEmbedRunes = 8000

// Embedder turns text into fixed-dimension vectors. Implementations must be
// deterministic for identical input within one process lifetime.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the length of every vector Embed returns.
	Dimension() int
}

// FakeEmbedder derives vectors from a hash of the input text. It needs no
// network, is fully deterministic across processes, and preserves the one
// property retrieval tests rely on: identical text maps to identical vectors.
type FakeEmbedder struct {
	dim int
}

func NewFakeEmbedder(dim int) (*FakeEmbedder, error) {
	if dim <= 0 {
		return nil, apperr.Configuration("embedding dimension must be positive")
	}
	return &FakeEmbedder{dim: dim}, nil
}

func (e *FakeEmbedder) Dimension() int {
	return e.dim
}

func (e *FakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(truncateForEmbedding(text))
	}
	return vectors, nil
}

// embedOne seeds a PRNG with the text hash and draws a unit vector from it.
func (e *FakeEmbedder) embedOne(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	seed := int64(binary.LittleEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))

	vector := make([]float32, e.dim)
	var norm float64
	for i := range vector {
		v := rng.NormFloat64()
		vector[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := 1.0 / math.Sqrt(norm)
		for i := range vector {
			vector[i] = float32(float64(vector[i]) * scale)
		}
	}
	return vector
}

// truncateForEmbedding bounds text to maxEmbedRunes runes.
func truncateForEmbedding(text string) string {
	runes := []rune(text)
	if len(runes) <= maxEmbedRunes {
		return text
	}
	return string(runes[:maxEmbedRunes])
}
