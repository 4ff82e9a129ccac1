package duration

import (
	"sort"

	"backlog/internal/services/hltb"
)

// SelectBest returns the candidate with the highest similarity. Equal scores
// keep the earliest candidate, so the result depends only on service order.
func SelectBest(candidates []hltb.Candidate) (hltb.Candidate, bool) {
	if len(candidates) == 0 {
		return hltb.Candidate{}, false
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Similarity > candidates[best].Similarity {
			best = i
		}
	}
	return candidates[best], true
}

// Rank returns a copy of candidates ordered by descending similarity,
// preserving service order among equal scores.
func Rank(candidates []hltb.Candidate) []hltb.Candidate {
	ranked := make([]hltb.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Similarity > ranked[j].Similarity
	})
	return ranked
}
