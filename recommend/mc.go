package recommend

import (
	"context"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/model"
	"github.com/Flyns157/API-recommendation/store"
)

// WeightedCountEngine is the weighted-count-graph recommender (§4.7.2):
// plain intersection-size scoring over follow/interest/tag sets and
// interaction edge counts.
type WeightedCountEngine struct {
	docs *store.Typed
}

func NewWeightedCountEngine(docs *store.Typed) *WeightedCountEngine {
	return &WeightedCountEngine{docs: docs}
}

func (e *WeightedCountEngine) Recommend(ctx context.Context, kind Kind, userID string, params Params) ([]string, error) {
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

func (e *WeightedCountEngine) recommendUsers(ctx context.Context, userID string, params Params) ([]string, error) {
	if err := validateWeights(params.Weights, 2); err != nil {
		return nil, err
	}
	wf, wi := params.Weights[0], params.Weights[1]

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
		// common_follows counts users both follow (mutual-targets), not
		// mutual-follow between u and v.
		commonFollows := intersectionCount(fu, toSet(v.Follows))
		commonInterests := intersectionCount(iu, toSet(v.Interests))
		return wf*float64(commonFollows) + wi*float64(commonInterests)
	}
	return rankIDs(ids, scoreOf, effectiveLimit(params.Limit)), nil
}

func (e *WeightedCountEngine) recommendPosts(ctx context.Context, userID string, params Params) ([]string, error) {
	if err := validateWeights(params.Weights, 2); err != nil {
		return nil, err
	}
	wi, wx := params.Weights[0], params.Weights[1]

	u, err := e.docs.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	iu := toSet(u.Interests)

	posts, err := e.docs.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Post, len(posts))
	var ids []string
	for _, p := range posts {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	scoreOf := func(id string) float64 {
		p := byID[id]
		interestScore := intersectionCount(iu, toSet(p.Keys))
		interactionScore := 0
		for _, l := range p.Likers {
			if l == userID {
				interactionScore++
			}
		}
		for _, c := range p.Commenters {
			if c == userID {
				interactionScore++
			}
		}
		return wi*float64(interestScore) + wx*float64(interactionScore)
	}
	return rankIDs(ids, scoreOf, effectiveLimit(params.Limit)), nil
}

func (e *WeightedCountEngine) recommendThreads(ctx context.Context, userID string, params Params) ([]string, error) {
	if err := validateWeights(params.Weights, 2); err != nil {
		return nil, err
	}
	wm, wi := params.Weights[0], params.Weights[1]

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

	// memberScore(t): how many of t's members are also members of any
	// thread u already belongs to (shared-member join).
	uThreads := make(map[string]bool)
	for _, t := range threads {
		if toSet(t.Members)[userID] {
			uThreads[t.ID] = true
		}
	}
	uSharedMembers := make(map[string]bool)
	for _, t := range threads {
		if !uThreads[t.ID] {
			continue
		}
		for _, m := range t.Members {
			uSharedMembers[m] = true
		}
	}

	ids := make([]string, 0, len(threads))
	byID := make(map[string]*model.Thread, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}

	scoreOf := func(id string) float64 {
		t := byID[id]
		memberScore := intersectionCount(uSharedMembers, toSet(t.Members))
		interestScore := intersectionCount(iu, tagsByThread[id])
		return wm*float64(memberScore) + wi*float64(interestScore)
	}
	return rankIDs(ids, scoreOf, effectiveLimit(params.Limit)), nil
}
