package ai

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFakeEmbedderValidation(t *testing.T) {
	_, err := NewFakeEmbedder(0)
	require.Error(t, err)

	_, err = NewFakeEmbedder(-5)
	require.Error(t, err)

	e, err := NewFakeEmbedder(384)
	require.NoError(t, err)
	require.Equal(t, 384, e.Dimension())
}

func TestFakeEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	e, err := NewFakeEmbedder(64)
	require.NoError(t, err)

	first, err := e.Embed(ctx, []string{"hello world"})
	require.NoError(t, err)
	second, err := e.Embed(ctx, []string{"hello world"})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFakeEmbedderDistinctTexts(t *testing.T) {
	ctx := context.Background()
	e, err := NewFakeEmbedder(64)
	require.NoError(t, err)

	vectors, err := e.Embed(ctx, []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.NotEqual(t, vectors[0], vectors[1])
}

func TestFakeEmbedderUnitNorm(t *testing.T) {
	ctx := context.Background()
	e, err := NewFakeEmbedder(128)
	require.NoError(t, err)

	vectors, err := e.Embed(ctx, []string{"some document chunk"})
	require.NoError(t, err)
	require.Len(t, vectors[0], 128)

	var norm float64
	for _, v := range vectors[0] {
		norm += float64(v) * float64(v)
	}
	require.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestFakeEmbedderEmptyBatch(t *testing.T) {
	ctx := context.Background()
	e, err := NewFakeEmbedder(16)
	require.NoError(t, err)

	vectors, err := e.Embed(ctx, []string{})
	require.NoError(t, err)
	require.Empty(t, vectors)
}

func TestTruncateForEmbedding(t *testing.T) {
	short := "short text"
	require.Equal(t, short, truncateForEmbedding(short))

	long := strings.Repeat("x", maxEmbedRunes+100)
	truncated := truncateForEmbedding(long)
	require.Equal(t, maxEmbedRunes, len([]rune(truncated)))
}

func TestFakeEmbedderTruncationConverges(t *testing.T) {
	// Texts identical up to the truncation point embed identically.
	ctx := context.Background()
	e, err := NewFakeEmbedder(32)
	require.NoError(t, err)

	base := strings.Repeat("y", maxEmbedRunes)
	vectors, err := e.Embed(ctx, []string{base + "tail one", base + "different tail"})
	require.NoError(t, err)
	require.Equal(t, vectors[0], vectors[1])
}
