// Package vectorindex provides an exact in-memory vector index over the
// chunk embeddings of a single document. Search is brute-force L2: with the
// corpus capped at one document per index, exactness beats an approximate
// structure at this scale.
package vectorindex

import (
	"fmt"
	"math"
	"sort"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

// Index holds the embeddings of one document, keyed by chunk index.
type Index struct {
	dim     int
	vectors [][]float32
}

// Result is a single search hit. Distance is squared L2; lower is closer.
type Result struct {
	ChunkIndex int
	Distance   float32
}

// New builds an index over vectors, where position i holds the embedding of
// chunk i. All vectors must share the same non-zero dimension.
func New(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, apperr.IndexBuild("cannot build index from zero vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, apperr.IndexBuild("cannot build index from zero-dimensional vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, apperr.IndexBuild(fmt.Sprintf("vector %d has dimension %d, expected %d", i, len(v), dim))
		}
	}
	return &Index{
		dim:     dim,
		vectors: vectors,
	}, nil
}

// Dimension returns the dimension the index was built with.
func (idx *Index) Dimension() int {
	return idx.dim
}

// Size returns the number of indexed vectors.
func (idx *Index) Size() int {
	return len(idx.vectors)
}

// Search returns the k nearest vectors to query, ordered by ascending
// distance. Ties are broken by ascending chunk index, so results are fully
// deterministic. k is clamped to the index size; k <= 0 returns nil.
func (idx *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dim {
		return nil, apperr.InvalidArgument(fmt.Sprintf("query has dimension %d, index expects %d", len(query), idx.dim))
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(idx.vectors) {
		k = len(idx.vectors)
	}

	results := make([]Result, 0, len(idx.vectors))
	for i, v := range idx.vectors {
		results = append(results, Result{
			ChunkIndex: i,
			Distance:   squaredL2(query, v),
		})
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Distance != results[b].Distance {
			return results[a].Distance < results[b].Distance
		}
		return results[a].ChunkIndex < results[b].ChunkIndex
	})
	return results[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// Normalize scales v to unit length in place and returns it. Zero vectors are
// returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
