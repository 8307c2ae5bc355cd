// Package embedding implements the embedding builder: recursive,
// weighted, cycle-safe, cache-aware, thread-safe composition of entity
// vectors over the social graph.
package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/model"
	"github.com/Flyns157/API-recommendation/store"
	"github.com/Flyns157/API-recommendation/textenc"
	"github.com/Flyns157/API-recommendation/vectormath"
)

// DefaultUserWeights, DefaultPostWeights and DefaultThreadWeights are the
// standard composition weights for each entity type.
var (
	DefaultUserWeights   = [3]float64{0.4, 0.2, 0.4}   // interests, description, follows
	DefaultPostWeights   = [4]float64{0.35, 0.35, 0.2, 0.1} // keys, title, body, author
	DefaultThreadWeights = [4]float64{0.1, 0.1, 0.4, 0.4}   // owner, name, members, posts
)

const stripeCount = 64

// Weights bundles the per-entity composition weights; all must individually
// sum to 1, validated at construction.
type Weights struct {
	User   [3]float64
	Post   [4]float64
	Thread [4]float64
}

// DefaultWeights returns the default weight tuples.
func DefaultWeights() Weights {
	return Weights{User: DefaultUserWeights, Post: DefaultPostWeights, Thread: DefaultThreadWeights}
}

func (w Weights) validate() error {
	if !vectormath.WeightsValid(w.User[0], w.User[1], w.User[2]) {
		return apperr.New(apperr.KindInvalidWeights, "user embedding weights must sum to 1")
	}
	if !vectormath.WeightsValid(w.Post[0], w.Post[1], w.Post[2], w.Post[3]) {
		return apperr.New(apperr.KindInvalidWeights, "post embedding weights must sum to 1")
	}
	if !vectormath.WeightsValid(w.Thread[0], w.Thread[1], w.Thread[2], w.Thread[3]) {
		return apperr.New(apperr.KindInvalidWeights, "thread embedding weights must sum to 1")
	}
	return nil
}

// Embedder computes and memoizes entity embeddings.
type Embedder struct {
	docs    *store.Typed
	encoder textenc.Encoder
	ttl     time.Duration
	weights Weights
	stripes []sync.Mutex
	log     *logrus.Entry
}

// New builds an Embedder. ttl is the embedding cache lifetime.
func New(docs *store.Typed, encoder textenc.Encoder, ttl time.Duration, weights Weights, log *logrus.Entry) (*Embedder, error) {
	if err := weights.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Embedder{
		docs:    docs,
		encoder: encoder,
		ttl:     ttl,
		weights: weights,
		stripes: make([]sync.Mutex, stripeCount),
		log:     log.WithField("component", "embedder"),
	}, nil
}

func (e *Embedder) checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return apperr.New(apperr.KindTimeout, "embedding computation deadline exceeded")
		}
		return apperr.New(apperr.KindCancelled, "embedding computation cancelled")
	default:
		return nil
	}
}

// weightedTerm is one candidate contributor to a composed embedding; it is
// dropped (and the remaining terms renormalized) when its data is absent,
// the same renormalization rule used for the follow-cycle base fallback,
// generalized to any missing optional term (e.g. a user with no interests).
type weightedTerm struct {
	weight float64
	vector []float64
	ok     bool
}

func composeRenormalized(terms []weightedTerm) ([]float64, error) {
	var pairs []vectormath.Pair
	var sum float64
	for _, t := range terms {
		if t.ok {
			sum += t.weight
		}
	}
	if sum == 0 {
		return nil, apperr.New(apperr.KindShapeMismatch, "no embedding terms available")
	}
	for _, t := range terms {
		if t.ok {
			pairs = append(pairs, vectormath.Pair{Weight: t.weight / sum, Vector: t.vector})
		}
	}
	return vectormath.ScaledAvg(pairs)
}

// writeCache persists a freshly computed embedding through a striped
// mutex: the lock index is derived from the record id, so concurrent
// writes to different records contend only when their ids hash to the
// same stripe.
func (e *Embedder) writeCache(ctx context.Context, collection, id string, vector []float64, at time.Time) {
	idx := stripeIndex(id, len(e.stripes))
	e.stripes[idx].Lock()
	defer e.stripes[idx].Unlock()
	if err := e.docs.Store.UpdateEmbedding(ctx, collection, id, vector, at); err != nil {
		e.log.WithError(err).WithField("id", id).Warn("failed to persist embedding cache")
	}
}

// EmbedUser returns E(u), the top-level entry point creating a fresh
// reentrance set for this single operation.
func (e *Embedder) EmbedUser(ctx context.Context, id string) ([]float64, error) {
	return e.embedUser(ctx, id, newReentranceSet())
}

func (e *Embedder) embedUser(ctx context.Context, id string, stack reentranceSet) ([]float64, error) {
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	u, err := e.docs.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Embedding.Fresh(time.Now(), e.ttl) {
		return u.Embedding.Vector, nil
	}
	if stack.onStack(id) {
		// Cycle: return the base embedding (interests + description only),
		// omitting the follow term.
		return e.baseUserEmbedding(ctx, u, stack)
	}

	stack.push(id)
	defer stack.pop(id)

	interestVec, interestOK, err := e.interestMean(ctx, u.Interests)
	if err != nil {
		return nil, err
	}
	descVec := e.encoder.Encode(u.Description)

	followVec, followOK, err := e.followMean(ctx, u.Follows, stack)
	if err != nil {
		return nil, err
	}

	vec, err := composeRenormalized([]weightedTerm{
		{e.weights.User[0], interestVec, interestOK},
		{e.weights.User[1], descVec, true},
		{e.weights.User[2], followVec, followOK},
	})
	if err != nil {
		return nil, err
	}

	e.writeCache(ctx, model.CollectionUsers, id, vec, time.Now())
	return vec, nil
}

// baseUserEmbedding computes the cycle-fallback vector: scaled_avg over
// the interests term and the description term only, with the two weights
// renormalized to sum to 1.
func (e *Embedder) baseUserEmbedding(ctx context.Context, u *model.User, stack reentranceSet) ([]float64, error) {
	interestVec, interestOK, err := e.interestMean(ctx, u.Interests)
	if err != nil {
		return nil, err
	}
	descVec := e.encoder.Encode(u.Description)
	return composeRenormalized([]weightedTerm{
		{e.weights.User[0], interestVec, interestOK},
		{e.weights.User[1], descVec, true},
	})
}

func (e *Embedder) interestMean(ctx context.Context, interestIDs []string) ([]float64, bool, error) {
	var pairs []vectormath.Pair
	for _, id := range interestIDs {
		vec, err := e.EmbedInterest(ctx, id)
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
				continue // dangling reference skipped
			}
			return nil, false, err
		}
		pairs = append(pairs, vectormath.Pair{Weight: 1, Vector: vec})
	}
	if len(pairs) == 0 {
		return nil, false, nil
	}
	v, err := vectormath.ScaledAvg(pairs)
	return v, true, err
}

func (e *Embedder) followMean(ctx context.Context, followIDs []string, stack reentranceSet) ([]float64, bool, error) {
	var pairs []vectormath.Pair
	for _, id := range followIDs {
		if err := e.checkCtx(ctx); err != nil {
			return nil, false, err
		}
		vec, err := e.embedUser(ctx, id, stack)
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
				continue // neighbor NotFound is silent, never fatal
			}
			return nil, false, err
		}
		pairs = append(pairs, vectormath.Pair{Weight: 1, Vector: vec})
	}
	if len(pairs) == 0 {
		return nil, false, nil
	}
	v, err := vectormath.ScaledAvg(pairs)
	return v, true, err
}

// EmbedInterest returns E(x) = encode(x.name) for an interest, cached.
func (e *Embedder) EmbedInterest(ctx context.Context, id string) ([]float64, error) {
	i, err := e.docs.GetInterest(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.Embedding.Fresh(time.Now(), e.ttl) {
		return i.Embedding.Vector, nil
	}
	vec := e.encoder.Encode(i.Name)
	e.writeCache(ctx, model.CollectionInterests, id, vec, time.Now())
	return vec, nil
}

// EmbedKey returns E(x) = encode(x.name) for a tag/key, cached.
func (e *Embedder) EmbedKey(ctx context.Context, id string) ([]float64, error) {
	k, err := e.docs.GetKey(ctx, id)
	if err != nil {
		return nil, err
	}
	if k.Embedding.Fresh(time.Now(), e.ttl) {
		return k.Embedding.Vector, nil
	}
	vec := e.encoder.Encode(k.Name)
	e.writeCache(ctx, model.CollectionKeys, id, vec, time.Now())
	return vec, nil
}

// EmbedPost returns the weighted composition of a post's keys, title, body
// and author.
func (e *Embedder) EmbedPost(ctx context.Context, id string) ([]float64, error) {
	return e.embedPost(ctx, id, newReentranceSet())
}

func (e *Embedder) embedPost(ctx context.Context, id string, stack reentranceSet) ([]float64, error) {
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	p, err := e.docs.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Embedding.Fresh(time.Now(), e.ttl) {
		return p.Embedding.Vector, nil
	}

	var keyPairs []vectormath.Pair
	for _, k := range p.Keys {
		vec, err := e.EmbedKey(ctx, k)
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		keyPairs = append(keyPairs, vectormath.Pair{Weight: 1, Vector: vec})
	}
	var keyVec []float64
	keyOK := len(keyPairs) > 0
	if keyOK {
		keyVec, err = vectormath.ScaledAvg(keyPairs)
		if err != nil {
			return nil, err
		}
	}

	titleVec := e.encoder.Encode("Title:\n" + p.Title)
	bodyVec := e.encoder.Encode("Content:\n" + p.Content)

	var authorVec []float64
	authorOK := false
	if p.AuthorID != "" {
		vec, err := e.embedUser(ctx, p.AuthorID, stack)
		if err != nil {
			if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindNotFound {
				return nil, err
			}
		} else {
			authorVec, authorOK = vec, true
		}
	}

	vec, err := composeRenormalized([]weightedTerm{
		{e.weights.Post[0], keyVec, keyOK},
		{e.weights.Post[1], titleVec, true},
		{e.weights.Post[2], bodyVec, true},
		{e.weights.Post[3], authorVec, authorOK},
	})
	if err != nil {
		return nil, err
	}
	e.writeCache(ctx, model.CollectionPosts, id, vec, time.Now())
	return vec, nil
}

// EmbedThread returns the weighted composition of a thread's owner, name,
// members and posts.
func (e *Embedder) EmbedThread(ctx context.Context, id string) ([]float64, error) {
	return e.embedThread(ctx, id, newReentranceSet())
}

func (e *Embedder) embedThread(ctx context.Context, id string, stack reentranceSet) ([]float64, error) {
	if err := e.checkCtx(ctx); err != nil {
		return nil, err
	}
	th, err := e.docs.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}
	if th.Embedding.Fresh(time.Now(), e.ttl) {
		return th.Embedding.Vector, nil
	}

	var ownerVec []float64
	ownerOK := false
	if th.OwnerID != "" {
		vec, err := e.embedUser(ctx, th.OwnerID, stack)
		if err != nil {
			if kind, ok := apperr.KindOf(err); !ok || kind != apperr.KindNotFound {
				return nil, err
			}
		} else {
			ownerVec, ownerOK = vec, true
		}
	}

	nameVec := e.encoder.Encode("Discussion name:\n" + th.Name)

	var memberPairs []vectormath.Pair
	for _, m := range th.Members {
		vec, err := e.embedUser(ctx, m, stack)
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		memberPairs = append(memberPairs, vectormath.Pair{Weight: 1, Vector: vec})
	}
	var memberVec []float64
	memberOK := len(memberPairs) > 0
	if memberOK {
		memberVec, err = vectormath.ScaledAvg(memberPairs)
		if err != nil {
			return nil, err
		}
	}

	posts, err := e.docs.PostsByThread(ctx, id)
	if err != nil {
		return nil, err
	}
	var postPairs []vectormath.Pair
	for _, p := range posts {
		vec, err := e.embedPost(ctx, p.ID, stack)
		if err != nil {
			if kind, ok := apperr.KindOf(err); ok && kind == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		postPairs = append(postPairs, vectormath.Pair{Weight: 1, Vector: vec})
	}
	var postsVec []float64
	postsOK := len(postPairs) > 0
	if postsOK {
		postsVec, err = vectormath.ScaledAvg(postPairs)
		if err != nil {
			return nil, err
		}
	}

	vec, err := composeRenormalized([]weightedTerm{
		{e.weights.Thread[0], ownerVec, ownerOK},
		{e.weights.Thread[1], nameVec, true},
		{e.weights.Thread[2], memberVec, memberOK},
		{e.weights.Thread[3], postsVec, postsOK},
	})
	if err != nil {
		return nil, err
	}
	e.writeCache(ctx, model.CollectionThreads, id, vec, time.Now())
	return vec, nil
}
