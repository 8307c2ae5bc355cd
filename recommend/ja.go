package recommend

import (
	"context"
	"math/rand"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/model"
	"github.com/Flyns157/API-recommendation/store"
)

// JaccardEngine is the Jaccard-graph recommender (§4.7.1): user similarity
// by follow-set and interest-set Jaccard, post similarity by tag-set
// Jaccard with an interest-set fallback and a deterministic post-shuffle.
type JaccardEngine struct {
	docs *store.Typed
}

func NewJaccardEngine(docs *store.Typed) *JaccardEngine {
	return &JaccardEngine{docs: docs}
}

// DefaultJaccardUserWeights is the default (w_f, w_i) weight pair for
// follower-overlap and interest-overlap Jaccard scores.
var DefaultJaccardUserWeights = []float64{0.4, 0.6}

func (e *JaccardEngine) Recommend(ctx context.Context, kind Kind, userID string, params Params) ([]string, error) {
	switch kind {
	case KindUsers:
		return e.recommendUsers(ctx, userID, params)
	case KindPosts:
		return e.recommendPosts(ctx, userID, params)
	case KindThreads:
		return e.recommendThreads(ctx, userID, params)
	default:
		return nil, apperr.New(apperr.KindInvalidParam, "unknown recommendation kind")
	}
}

func (e *JaccardEngine) recommendUsers(ctx context.Context, userID string, params Params) ([]string, error) {
	weights := params.Weights
	if weights == nil {
		weights = DefaultJaccardUserWeights
	}
	if err := validateWeights(weights, 2); err != nil {
		return nil, err
	}
	wf, wi := weights[0], weights[1]

	u, err := e.docs.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	fu, iu := toSet(u.Follows), toSet(u.Interests)

	candidates, err := e.docs.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(candidates))
	var ids []string
	for _, c := range candidates {
		if c.ID == userID {
			continue
		}
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	scoreOf := func(id string) float64 {
		v := byID[id]
		jf := jaccard(fu, toSet(v.Follows))
		ji := jaccard(iu, toSet(v.Interests))
		return (wf*jf + wi*ji) / 2 // divide-by-2 preserved for compatibility
	}
	return rankIDs(ids, scoreOf, effectiveLimit(params.Limit)), nil
}

func (e *JaccardEngine) recommendPosts(ctx context.Context, userID string, params Params) ([]string, error) {
	u, err := e.docs.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	allPosts, err := e.docs.AllPosts(ctx)
	if err != nil {
		return nil, err
	}

	var ownTags map[string]bool
	for _, p := range allPosts {
		if p.AuthorID == userID {
			if ownTags == nil {
				ownTags = make(map[string]bool)
			}
			for _, k := range p.Keys {
				ownTags[k] = true
			}
		}
	}

	useTagFallback := ownTags == nil
	authorInterests := make(map[string]map[string]bool)
	if useTagFallback {
		for _, p := range allPosts {
			if _, ok := authorInterests[p.AuthorID]; ok {
				continue
			}
			author, err := e.docs.GetUser(ctx, p.AuthorID)
			if err != nil {
				if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
					authorInterests[p.AuthorID] = nil
					continue
				}
				return nil, err
			}
			authorInterests[p.AuthorID] = toSet(author.Interests)
		}
	}
	iu := toSet(u.Interests)

	window := paginate(allPosts, params.Skip, effectiveLimit(params.Limit))
	ids := make([]string, 0, len(window))
	byID := make(map[string]*model.Post, len(window))
	for _, p := range window {
		ids = append(ids, p.ID)
		byID[p.ID] = p
	}

	scoreOf := func(id string) float64 {
		p := byID[id]
		if !useTagFallback {
			return jaccard(ownTags, toSet(p.Keys))
		}
		return jaccard(iu, authorInterests[p.AuthorID])
	}
	ranked := rankIDs(ids, scoreOf, len(ids))
	return shuffleJA(ranked, params.Seed), nil
}

func (e *JaccardEngine) recommendThreads(ctx context.Context, userID string, params Params) ([]string, error) {
	weights := params.Weights
	if weights == nil {
		weights = []float64{1.0}
	}
	if err := validateWeights(weights, 1); err != nil {
		return nil, err
	}

	u, err := e.docs.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	iu := toSet(u.Interests)

	threads, err := e.docs.AllThreads(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := e.docs.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	tagsByThread := make(map[string]map[string]bool)
	for _, p := range posts {
		if tagsByThread[p.ThreadID] == nil {
			tagsByThread[p.ThreadID] = make(map[string]bool)
		}
		for _, k := range p.Keys {
			tagsByThread[p.ThreadID][k] = true
		}
	}

	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	scoreOf := func(id string) float64 {
		return jaccard(iu, tagsByThread[id])
	}
	return rankIDs(ids, scoreOf, effectiveLimit(params.Limit)), nil
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return nil
	}
	end := skip + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// shuffleJA applies a deterministic post-processing shuffle: for each
// index s from 0 upward, with independent probability 0.2, swap the last
// element into position s and drop the tail. Seeded so repeated calls
// with the same seed reproduce the same permutation; this never touches
// the global rand state.
func shuffleJA(ranked []string, seed int64) []string {
	out := append([]string(nil), ranked...)
	rng := rand.New(rand.NewSource(seed))
	for s := 0; s < len(out); s++ {
		if len(out) <= s+1 {
			break
		}
		if rng.Float64() < 0.2 {
			last := len(out) - 1
			out[s] = out[last]
			out = out[:last]
		}
	}
	return out
}
