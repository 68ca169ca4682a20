package ingest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/CrediTrust/complaint-insights/engine/domain"
)

// Chunk is a bounded slice of one complaint narrative ready for embedding.
// Record is the ordinal of the parent complaint within the ingestion run;
// together with Index it makes chunk identity deterministic across rebuilds
// of the same input.
type Chunk struct {
	Text   string
	Index  int
	Record int
	Parent domain.Complaint
}

// Stats accumulates per-record outcomes of a normalization pass. Dropped
// records are counted per reason, never raised.
type Stats struct {
	TotalRows   int
	Kept        int
	Dropped     map[domain.DropReason]int
	PerCategory map[domain.Category]int
	wordCounts  []int
}

func newStats() *Stats {
	return &Stats{
		Dropped:     make(map[domain.DropReason]int),
		PerCategory: make(map[domain.Category]int),
	}
}

// DroppedTotal returns the number of excluded records.
func (s *Stats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Report renders a plain-text summary of the normalization pass: row counts,
// per-category distribution, and narrative word-count statistics.
func (s *Stats) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Original Count: %d\n", s.TotalRows)
	fmt.Fprintf(&b, "Filtered (Product & Narrative) Count: %d\n", s.Kept)

	b.WriteString("\nDistribution by Product:\n")
	for _, cat := range domain.Categories {
		if n := s.PerCategory[cat]; n > 0 {
			fmt.Fprintf(&b, "  %-16s %d\n", cat, n)
		}
	}

	b.WriteString("\nDropped:\n")
	reasons := make([]string, 0, len(s.Dropped))
	for r := range s.Dropped {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Fprintf(&b, "  %-24s %d\n", r, s.Dropped[domain.DropReason(r)])
	}

	if len(s.wordCounts) > 0 {
		min, max, sum := s.wordCounts[0], s.wordCounts[0], 0
		for _, w := range s.wordCounts {
			if w < min {
				min = w
			}
			if w > max {
				max = w
			}
			sum += w
		}
		b.WriteString("\nWord Count Stats:\n")
		fmt.Fprintf(&b, "  count %d  mean %.1f  min %d  max %d\n",
			len(s.wordCounts), float64(sum)/float64(len(s.wordCounts)), min, max)
	}
	return b.String()
}

// NormalizeRecords runs raw rows through categorization and text cleaning.
// Records that map to no category or clean to an empty narrative are
// excluded and counted; everything returned carries exactly one category and
// a non-empty cleaned narrative.
func NormalizeRecords(records []domain.ComplaintRecord) ([]domain.Complaint, *Stats) {
	stats := newStats()
	stats.TotalRows = len(records)

	out := make([]domain.Complaint, 0, len(records))
	for _, rec := range records {
		cat, reason := domain.Classify(rec)
		if reason != domain.DropNone {
			stats.Dropped[reason]++
			continue
		}
		cleaned := domain.CleanText(rec.Narrative)
		if cleaned == "" {
			stats.Dropped[domain.DropEmptyNarrative]++
			continue
		}
		out = append(out, domain.Complaint{
			ComplaintRecord: rec,
			Category:        cat,
			Narrative:       cleaned,
		})
		stats.Kept++
		stats.PerCategory[cat]++
		stats.wordCounts = append(stats.wordCounts, len(strings.Fields(cleaned)))
	}
	return out, stats
}

// ChunkComplaints splits every narrative into bounded overlapping chunks.
// Assumes opts was validated.
func ChunkComplaints(complaints []domain.Complaint, opts SplitOptions) []Chunk {
	var chunks []Chunk
	for rec, c := range complaints {
		for i, text := range SplitText(c.Narrative, opts) {
			chunks = append(chunks, Chunk{
				Text:   text,
				Index:  i,
				Record: rec,
				Parent: c,
			})
		}
	}
	return chunks
}
