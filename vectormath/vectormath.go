// Package vectormath implements the fixed-dimension vector kernel shared by
// the embedding builder and the recommendation engines: scaled average,
// cosine similarity, and stable top-K ranking.
package vectormath

import (
	"math"
	"sort"

	"github.com/Flyns157/API-recommendation/apperr"
)

// Pair is one (weight, vector) input to ScaledAvg.
type Pair struct {
	Weight float64
	Vector []float64
}

// ScaledAvg computes Σ wᵢ·vᵢ / N where N is the COUNT of input pairs, not
// Σ wᵢ, so the scale of the result depends on how many pairs are passed.
// Every caller shares this same rule. All vectors must share
// dimension; a disagreement fails with ShapeMismatch. The input must be
// non-empty.
func ScaledAvg(pairs []Pair) ([]float64, error) {
	if len(pairs) == 0 {
		return nil, apperr.New(apperr.KindShapeMismatch, "scaled_avg requires at least one pair")
	}
	dim := len(pairs[0].Vector)
	if dim == 0 {
		return nil, apperr.New(apperr.KindShapeMismatch, "scaled_avg vectors must be non-empty")
	}
	sum := make([]float64, dim)
	for _, p := range pairs {
		if len(p.Vector) != dim {
			return nil, apperr.New(apperr.KindShapeMismatch, "scaled_avg dimension mismatch")
		}
		for i, v := range p.Vector {
			sum[i] += p.Weight * v
		}
	}
	n := float64(len(pairs))
	for i := range sum {
		sum[i] /= n
	}
	return sum, nil
}

// Cosine computes (u·v) / (‖u‖·‖v‖). Vectors with an undefined (zero) norm
// score 0.
func Cosine(u, v []float64) float64 {
	if len(u) != len(v) || len(u) == 0 {
		return 0
	}
	var dot, nu, nv float64
	for i := range u {
		dot += u[i] * v[i]
		nu += u[i] * u[i]
		nv += v[i] * v[i]
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	return dot / (math.Sqrt(nu) * math.Sqrt(nv))
}

// Scored is one candidate and its score, used by ArgsortTopK.
type Scored struct {
	Index int
	Score float64
}

// ArgsortTopK returns the indices of the top-k scores, descending, ties
// broken by ascending original index (stable). Output length is
// min(k, len(scores)).
func ArgsortTopK(scores []float64, k int) []int {
	idx := make([]int, len(scores))
	for i := range scores {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		sa, sb := scores[idx[a]], scores[idx[b]]
		if sa != sb {
			return sa > sb
		}
		return idx[a] < idx[b]
	})
	if k < 0 {
		k = 0
	}
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}

// WeightsValid reports whether the given weights sum to 1.0 within the
// tolerance ε = 1e-9 and are all non-negative.
func WeightsValid(weights ...float64) bool {
	var sum float64
	for _, w := range weights {
		if w < 0 {
			return false
		}
		sum += w
	}
	return math.Abs(sum-1.0) <= 1e-9
}
