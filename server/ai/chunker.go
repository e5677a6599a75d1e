package ai

import (
	"strings"

	apperr "github.com/askdoc/askdoc/internal/errors"
)

const (
	// DefaultChunkSize is the maximum rune count per chunk.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the rune count shared between adjacent chunks.
	DefaultChunkOverlap = 50
)

// Chunk is one window of the source text. Start and End are rune offsets into
// the original text, with End exclusive.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// Chunker splits extracted document text into fixed-size overlapping windows.
// The split is purely positional, so the same text always yields the same
// chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker returns a chunker with the given window size and overlap, both
// in runes. The overlap must be smaller than the size or the window could
// never advance.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, apperr.Configuration("chunk size must be positive")
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, apperr.Configuration("chunk overlap must be in [0, chunk size)")
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Chunk splits text into windows of at most chunkSize runes, each starting
// overlap runes before the previous window ended. The final chunk may be
// shorter. Text that is empty or whitespace-only yields no chunks.
func (c *Chunker) Chunk(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	stride := c.chunkSize - c.overlap

	chunks := []Chunk{}
	for start := 0; start < len(runes); start += stride {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
