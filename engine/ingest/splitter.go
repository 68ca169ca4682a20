package ingest

import (
	"fmt"
	"strings"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 500
	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 50
)

// splitSeparators are tried coarsest-first when looking for a break point;
// a hard character cut is the final fallback.
var splitSeparators = []string{"\n\n", "\n", " "}

// SplitOptions configures the narrative splitter. Units are characters,
// both here and in the persisted index.
type SplitOptions struct {
	ChunkSize int
	Overlap   int
}

// DefaultSplitOptions returns the standard chunking parameters.
func DefaultSplitOptions() SplitOptions {
	return SplitOptions{ChunkSize: DefaultChunkSize, Overlap: DefaultChunkOverlap}
}

// Validate rejects malformed parameters. Overlap must be strictly smaller
// than the chunk size or chunking cannot make forward progress.
func (o SplitOptions) Validate() error {
	if o.ChunkSize <= 0 {
		return domain.NewConfigError("chunk_size", fmt.Sprint(o.ChunkSize), domain.ErrInvalidChunkParams)
	}
	if o.Overlap < 0 || o.Overlap >= o.ChunkSize {
		return domain.NewConfigError("chunk_overlap", fmt.Sprint(o.Overlap), domain.ErrInvalidChunkParams)
	}
	return nil
}

// SplitText splits text into bounded, overlapping slices. Each slice is an
// exact substring of the input; each slice after the first begins exactly
// Overlap characters before the previous slice ends, so concatenating the
// slices with the duplicated overlap removed reconstructs the input.
//
// Break points are searched coarsest separator first (paragraph, line, word)
// within the slice window, falling back to a hard cut at ChunkSize when no
// separator lands far enough into the window.
func SplitText(text string, opts SplitOptions) []string {
	if text == "" {
		return nil
	}
	if len(text) <= opts.ChunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + opts.ChunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		// A break point must leave room for forward progress past the
		// overlap, and should not produce a tiny fragment.
		minCut := start + opts.Overlap + 1
		if half := start + opts.ChunkSize/2; half > minCut {
			minCut = half
		}

		cut := end
		for _, sep := range splitSeparators {
			p := strings.LastIndex(text[start:end], sep)
			if p < 0 {
				continue
			}
			if c := start + p + len(sep); c >= minCut {
				cut = c
				break
			}
		}

		chunks = append(chunks, text[start:cut])
		start = cut - opts.Overlap
	}
	return chunks
}
