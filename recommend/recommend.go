// Package recommend implements the three recommendation engines
// behind a single shared contract: recommend(kind, user_id, params) ->
// ordered ids, highest score first.
package recommend

import (
	"context"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/vectormath"
)

// Kind names what sort of entity is being recommended.
type Kind string

const (
	KindUsers   Kind = "users"
	KindPosts   Kind = "posts"
	KindThreads Kind = "threads"
)

// Params carries the per-call, per-engine knobs: weights (engine-specific
// arity, validated by each engine for sum-to-one), a result limit, an
// optional (skip, limit) pagination window for the JA post engine, and a
// seed for JA's deterministic post-shuffle.
type Params struct {
	Weights []float64
	Limit   int
	Skip    int
	Seed    int64
}

// Engine is a strategy interface: scoring is engine-specific, ranking is
// not. Each engine validates its own weight arity/sum before touching any
// store.
type Engine interface {
	Recommend(ctx context.Context, kind Kind, userID string, params Params) ([]string, error)
}

// DefaultLimit is applied when Params.Limit is zero or negative.
const DefaultLimit = 10

func effectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// validateWeights checks arity and that weights sum to 1 within ε and are
// non-negative, before any store access, returning
// InvalidWeights/InvalidParam on failure.
func validateWeights(weights []float64, arity int) error {
	if len(weights) != arity {
		return apperr.New(apperr.KindInvalidParam, "wrong number of weights")
	}
	if !vectormath.WeightsValid(weights...) {
		return apperr.New(apperr.KindInvalidWeights, "weights must be non-negative and sum to 1")
	}
	return nil
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter, union := 0, 0
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	union = len(seen)
	for k := range a {
		if b[k] {
			inter++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func toSet(ids []string) map[string]bool {
	s := make(map[string]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func intersectionCount(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}
