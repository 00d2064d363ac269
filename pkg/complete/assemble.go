package complete

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FilterFunc scores a candidate label against the in-progress text. ok=false
// drops the candidate; score orders survivors, lower first. The host may
// supply its own ranking.
type FilterFunc func(pattern, label string) (score int, ok bool)

// unrankedScore sorts candidates the pattern does not fuzzy-match after every
// ranked one.
const unrankedScore = 1 << 20

// DefaultFilter is a case-insensitive, diacritic-insensitive fuzzy ranking.
// It never drops candidates: non-matching ones are kept at unrankedScore, so
// the full term set of a grammar situation stays reachable no matter what is
// typed. An empty pattern keeps every candidate at score 0.
func DefaultFilter(pattern, label string) (int, bool) {
	if pattern == "" {
		return 0, true
	}
	rank := fuzzy.RankMatchNormalizedFold(pattern, label)
	if rank < 0 {
		return unrankedScore, true
	}
	return rank, true
}

// assemble filters the candidate set against query, ranks the survivors and
// truncates to limit. The incoming order is preserved between equal scores,
// so prepended metadata candidates stay ahead of static terms.
func assemble(candidates []Candidate, query string, filter FilterFunc, limit int) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, cand := range candidates {
		score, ok := filter(query, cand.Label)
		if !ok {
			continue
		}
		cand.Score = score
		kept = append(kept, cand)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score < kept[j].Score
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}
