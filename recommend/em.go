package recommend

import (
	"context"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/embedding"
	"github.com/Flyns157/API-recommendation/store"
	"github.com/Flyns157/API-recommendation/vectormath"
)

// EmbeddingEngine is the embedding-cosine recommender (§4.7.3): scores
// candidates by cosine similarity of C5 embeddings. Weights are not
// applicable to this engine; Params.Weights is ignored.
type EmbeddingEngine struct {
	docs     *store.Typed
	embedder *embedding.Embedder
}

func NewEmbeddingEngine(docs *store.Typed, embedder *embedding.Embedder) *EmbeddingEngine {
	return &EmbeddingEngine{docs: docs, embedder: embedder}
}

func (e *EmbeddingEngine) Recommend(ctx context.Context, kind Kind, userID string, params Params) ([]string, error) {
	root, err := e.embedder.EmbedUser(ctx, userID)
	if err != nil {
		if k, ok := apperr.KindOf(err); ok && k == apperr.KindNotFound {
			return []string{}, nil // no record for requester -> empty list, not an error
		}
		return nil, err
	}

	switch kind {
	case KindUsers:
		return e.rankAgainstUsers(ctx, userID, root, params)
	case KindPosts:
		return e.rankAgainstPosts(ctx, root, params)
	case KindThreads:
		return e.rankAgainstThreads(ctx, root, params)
	default:
		return nil, apperr.New(apperr.KindInvalidParam, "unknown recommendation kind")
	}
}

func (e *EmbeddingEngine) rankAgainstUsers(ctx context.Context, userID string, root []float64, params Params) ([]string, error) {
	users, err := e.docs.AllUsers(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		ids = append(ids, u.ID)
	}
	return e.rank(ctx, ids, root, func(id string) ([]float64, error) {
		return e.embedder.EmbedUser(ctx, id)
	}, params)
}

func (e *EmbeddingEngine) rankAgainstPosts(ctx context.Context, root []float64, params Params) ([]string, error) {
	posts, err := e.docs.AllPosts(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return e.rank(ctx, ids, root, func(id string) ([]float64, error) {
		return e.embedder.EmbedPost(ctx, id)
	}, params)
}

func (e *EmbeddingEngine) rankAgainstThreads(ctx context.Context, root []float64, params Params) ([]string, error) {
	threads, err := e.docs.AllThreads(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	return e.rank(ctx, ids, root, func(id string) ([]float64, error) {
		return e.embedder.EmbedThread(ctx, id)
	}, params)
}

// rank scores every candidate by cosine(root, embed(candidate)), silently
// skipping candidates whose embedding cannot be computed (NotFound).
func (e *EmbeddingEngine) rank(ctx context.Context, ids []string, root []float64, embed func(string) ([]float64, error), params Params) ([]string, error) {
	var kept []string
	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		vec, err := embed(id)
		if err != nil {
			if k, ok := apperr.KindOf(err); ok && k == apperr.KindNotFound {
				continue
			}
			return nil, err
		}
		kept = append(kept, id)
		scores[id] = vectormath.Cosine(root, vec)
	}
	return rankIDs(kept, func(id string) float64 { return scores[id] }, effectiveLimit(params.Limit)), nil
}
