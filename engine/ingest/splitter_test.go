package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

func TestSplitOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts SplitOptions
		ok   bool
	}{
		{"defaults", DefaultSplitOptions(), true},
		{"zero size", SplitOptions{ChunkSize: 0, Overlap: 0}, false},
		{"negative overlap", SplitOptions{ChunkSize: 100, Overlap: -1}, false},
		{"overlap equals size", SplitOptions{ChunkSize: 100, Overlap: 100}, false},
		{"overlap exceeds size", SplitOptions{ChunkSize: 100, Overlap: 150}, false},
		{"no overlap", SplitOptions{ChunkSize: 100, Overlap: 0}, true},
	}
	for _, tt := range tests {
		err := tt.opts.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("%s: expected error", tt.name)
			} else if !errors.Is(err, domain.ErrInvalidChunkParams) {
				t.Errorf("%s: expected ErrInvalidChunkParams, got %v", tt.name, err)
			}
		}
	}
}

func TestSplitText_Short(t *testing.T) {
	opts := DefaultSplitOptions()
	got := SplitText("short narrative", opts)
	if len(got) != 1 || got[0] != "short narrative" {
		t.Fatalf("expected single identical slice, got %q", got)
	}
	if SplitText("", opts) != nil {
		t.Fatal("empty text must yield no chunks")
	}
}

// reassemble concatenates chunks with the overlap duplication removed.
func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(c[overlap:])
	}
	return b.String()
}

func TestSplitText_BoundAndCoverage(t *testing.T) {
	texts := []string{
		strings.Repeat("the charge was never refunded and the fee kept coming back. ", 40),
		"first paragraph about a disputed fee.\n\nsecond paragraph about the refund that never arrived.\n\n" + strings.Repeat("third paragraph with a lot of repeated words about the dispute. ", 20),
		strings.Repeat("a", 1700), // no separators at all, hard cuts only
		strings.Repeat("word ", 300),
	}

	for _, opts := range []SplitOptions{
		DefaultSplitOptions(),
		{ChunkSize: 120, Overlap: 20},
		{ChunkSize: 80, Overlap: 0},
	} {
		for ti, text := range texts {
			chunks := SplitText(text, opts)
			if len(chunks) == 0 {
				t.Fatalf("text %d: no chunks", ti)
			}
			for ci, c := range chunks {
				if len(c) > opts.ChunkSize {
					t.Errorf("text %d chunk %d: len %d exceeds max %d", ti, ci, len(c), opts.ChunkSize)
				}
				if len(c) == 0 {
					t.Errorf("text %d chunk %d: empty", ti, ci)
				}
			}
			if got := reassemble(chunks, opts.Overlap); got != text {
				t.Errorf("text %d opts %+v: reassembled text differs from input (got %d chars, want %d)",
					ti, opts, len(got), len(text))
			}
		}
	}
}

func TestSplitText_OverlapExact(t *testing.T) {
	opts := SplitOptions{ChunkSize: 100, Overlap: 25}
	text := strings.Repeat("complaint narrative segment ", 30)
	chunks := SplitText(text, opts)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-opts.Overlap:]
		head := chunks[i][:opts.Overlap]
		if tail != head {
			t.Fatalf("chunk %d: overlap mismatch: %q vs %q", i, tail, head)
		}
	}
}

func TestSplitText_PrefersParagraphBreaks(t *testing.T) {
	opts := SplitOptions{ChunkSize: 100, Overlap: 10}
	text := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 80)
	chunks := SplitText(text, opts)
	if len(chunks) < 2 {
		t.Fatalf("expected a split, got %d chunks", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Errorf("first chunk should break after the paragraph separator, got %q", chunks[0])
	}
}
