package ingest

import (
	"math/rand"
	"sort"

	"github.com/CrediTrust/complaint-insights/engine/domain"
	"github.com/CrediTrust/complaint-insights/pkg/fn"
)

// StratifiedSample draws n complaints preserving per-category proportions.
// Allocation uses the largest-remainder method: each category gets the floor
// of its proportional quota, and the leftover capacity goes to the
// categories with the largest fractional remainders, so the sample hits n
// exactly. The same seed over the same input yields the same sample.
func StratifiedSample(complaints []domain.Complaint, n int, seed int64) []domain.Complaint {
	if n <= 0 {
		return nil
	}
	if n >= len(complaints) {
		out := make([]domain.Complaint, len(complaints))
		copy(out, complaints)
		return out
	}

	groups := fn.GroupBy(complaints, func(c domain.Complaint) domain.Category {
		return c.Category
	})

	// Fixed iteration order for deterministic allocation.
	cats := make([]domain.Category, 0, len(groups))
	for cat := range groups {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	total := float64(len(complaints))
	alloc := make(map[domain.Category]int, len(cats))
	type remainder struct {
		cat  domain.Category
		frac float64
	}
	remainders := make([]remainder, 0, len(cats))

	assigned := 0
	for _, cat := range cats {
		quota := float64(n) * float64(len(groups[cat])) / total
		base := int(quota)
		alloc[cat] = base
		assigned += base
		remainders = append(remainders, remainder{cat: cat, frac: quota - float64(base)})
	}

	sort.SliceStable(remainders, func(i, j int) bool {
		if remainders[i].frac != remainders[j].frac {
			return remainders[i].frac > remainders[j].frac
		}
		return remainders[i].cat < remainders[j].cat
	})
	for i := 0; assigned < n; i++ {
		cat := remainders[i%len(remainders)].cat
		if alloc[cat] < len(groups[cat]) {
			alloc[cat]++
			assigned++
		}
	}

	rng := rand.New(rand.NewSource(seed))
	out := make([]domain.Complaint, 0, n)
	for _, cat := range cats {
		group := groups[cat]
		picked := alloc[cat]
		if picked > len(group) {
			picked = len(group)
		}
		idxs := rng.Perm(len(group))[:picked]
		sort.Ints(idxs) // keep source order within a category
		for _, i := range idxs {
			out = append(out, group[i])
		}
	}
	return out
}
