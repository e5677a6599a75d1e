package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

func TestNewRejectsEmptyInput(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeIndexBuild))

	_, err = New([][]float32{})
	require.Error(t, err)
}

func TestNewRejectsDimensionMismatch(t *testing.T) {
	_, err := New([][]float32{
		{1, 0, 0},
		{0, 1},
	})
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeIndexBuild))
}

func TestSearchSelfIsNearest(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	idx, err := New(vectors)
	require.NoError(t, err)

	for i, v := range vectors {
		results, err := idx.Search(v, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		require.Equal(t, i, results[0].ChunkIndex)
		require.Zero(t, results[0].Distance)
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	idx, err := New([][]float32{
		{0, 0},
		{3, 0},
		{1, 0},
	})
	require.NoError(t, err)

	results, err := idx.Search([]float32{0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 0, results[0].ChunkIndex)
	require.Equal(t, 2, results[1].ChunkIndex)
	require.Equal(t, 1, results[2].ChunkIndex)
	require.LessOrEqual(t, results[0].Distance, results[1].Distance)
	require.LessOrEqual(t, results[1].Distance, results[2].Distance)
}

func TestSearchBreaksTiesByChunkIndex(t *testing.T) {
	// Two identical vectors are equidistant from any query.
	idx, err := New([][]float32{
		{1, 1},
		{1, 1},
		{5, 5},
	})
	require.NoError(t, err)

	results, err := idx.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	require.Equal(t, []Result{
		{ChunkIndex: 0, Distance: results[0].Distance},
		{ChunkIndex: 1, Distance: results[1].Distance},
	}, results)
	require.Equal(t, results[0].Distance, results[1].Distance)
}

func TestSearchClampsK(t *testing.T) {
	idx, err := New([][]float32{
		{1, 0},
		{0, 1},
	})
	require.NoError(t, err)

	results, err := idx.Search([]float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = idx.Search([]float32{1, 0}, 0)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchRejectsWrongQueryDimension(t *testing.T) {
	idx, err := New([][]float32{{1, 0, 0}})
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0}, 1)
	require.Error(t, err)
	require.True(t, apperr.IsCode(err, apperr.ErrCodeInvalidArgument))
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	require.InDelta(t, 0.6, v[0], 1e-6)
	require.InDelta(t, 0.8, v[1], 1e-6)

	zero := Normalize([]float32{0, 0})
	require.Equal(t, []float32{0, 0}, zero)
}
