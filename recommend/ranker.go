package recommend

import (
	"sort"

	"github.com/Flyns157/API-recommendation/vectormath"
)

// rankIDs returns the top-limit ids from candidates by score, descending,
// ties broken by ascending id. Candidates are sorted ascending first so
// that ArgsortTopK's ascending-index tiebreak coincides with an
// ascending-id tiebreak.
func rankIDs(candidates []string, scoreOf func(id string) float64, limit int) []string {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	scores := make([]float64, len(sorted))
	for i, id := range sorted {
		scores[i] = scoreOf(id)
	}

	idx := vectormath.ArgsortTopK(scores, limit)
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = sorted[j]
	}
	return out
}
