// Package store provides the document-store adapter and graph-store
// adapter: the only two components allowed to speak to external
// databases. Every other package depends on the interfaces declared here,
// never on a driver package directly.
package store

import (
	"context"
	"time"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/model"
)

// RecordIterator is a lazy sequence of records from Find, closed by the
// caller when done.
type RecordIterator interface {
	Next(ctx context.Context) bool
	Decode(out any) error
	Err() error
	Close(ctx context.Context) error
}

// DocumentStore reads and writes JSON-like records keyed by id, namespaced
// by collection. Reads are snapshot-consistent per call;
// update_embedding is an atomic per-document update of the "embedding"
// sub-field. Errors surface as KindStoreFault (retryable transport fault,
// already retried by the implementation) or KindNotFound.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string, out any) error
	Find(ctx context.Context, collection string, filter map[string]any) (RecordIterator, error)
	UpdateEmbedding(ctx context.Context, collection, id string, vector []float64, at time.Time) error
}

// Typed wraps a DocumentStore with the entity-shaped convenience methods
// the embedding builder, sync projector and recommenders actually use,
// keeping the generic adapter itself collection-agnostic.
type Typed struct {
	Store DocumentStore
}

func NewTyped(s DocumentStore) *Typed { return &Typed{Store: s} }

func (t *Typed) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := t.Store.Get(ctx, model.CollectionUsers, id, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (t *Typed) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post
	if err := t.Store.Get(ctx, model.CollectionPosts, id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *Typed) GetThread(ctx context.Context, id string) (*model.Thread, error) {
	var th model.Thread
	if err := t.Store.Get(ctx, model.CollectionThreads, id, &th); err != nil {
		return nil, err
	}
	return &th, nil
}

func (t *Typed) GetInterest(ctx context.Context, id string) (*model.Interest, error) {
	var i model.Interest
	if err := t.Store.Get(ctx, model.CollectionInterests, id, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (t *Typed) GetKey(ctx context.Context, id string) (*model.Key, error) {
	var k model.Key
	if err := t.Store.Get(ctx, model.CollectionKeys, id, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

func (t *Typed) GetRole(ctx context.Context, name string) (*model.Role, error) {
	var r model.Role
	if err := t.Store.Get(ctx, model.CollectionRoles, name, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// AllUsers streams every user document, skipping any that fail to decode
// rather than failing the whole scan.
func (t *Typed) AllUsers(ctx context.Context) ([]*model.User, error) {
	it, err := t.Store.Find(ctx, model.CollectionUsers, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.User
	for it.Next(ctx) {
		var u model.User
		if err := it.Decode(&u); err != nil {
			continue
		}
		out = append(out, &u)
	}
	return out, it.Err()
}

func (t *Typed) AllPosts(ctx context.Context) ([]*model.Post, error) {
	it, err := t.Store.Find(ctx, model.CollectionPosts, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Post
	for it.Next(ctx) {
		var p model.Post
		if err := it.Decode(&p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, it.Err()
}

func (t *Typed) AllThreads(ctx context.Context) ([]*model.Thread, error) {
	it, err := t.Store.Find(ctx, model.CollectionThreads, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Thread
	for it.Next(ctx) {
		var th model.Thread
		if err := it.Decode(&th); err != nil {
			continue
		}
		out = append(out, &th)
	}
	return out, it.Err()
}

func (t *Typed) AllInterests(ctx context.Context) ([]*model.Interest, error) {
	it, err := t.Store.Find(ctx, model.CollectionInterests, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Interest
	for it.Next(ctx) {
		var i model.Interest
		if err := it.Decode(&i); err != nil {
			continue
		}
		out = append(out, &i)
	}
	return out, it.Err()
}

func (t *Typed) AllKeys(ctx context.Context) ([]*model.Key, error) {
	it, err := t.Store.Find(ctx, model.CollectionKeys, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Key
	for it.Next(ctx) {
		var k model.Key
		if err := it.Decode(&k); err != nil {
			continue
		}
		out = append(out, &k)
	}
	return out, it.Err()
}

func (t *Typed) AllRoles(ctx context.Context) ([]*model.Role, error) {
	it, err := t.Store.Find(ctx, model.CollectionRoles, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Role
	for it.Next(ctx) {
		var r model.Role
		if err := it.Decode(&r); err != nil {
			continue
		}
		out = append(out, &r)
	}
	return out, it.Err()
}

// PostsByThread returns all posts whose thread_id matches threadID.
func (t *Typed) PostsByThread(ctx context.Context, threadID string) ([]*model.Post, error) {
	it, err := t.Store.Find(ctx, model.CollectionPosts, map[string]any{"thread_id": threadID})
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)
	var out []*model.Post
	for it.Next(ctx) {
		var p model.Post
		if err := it.Decode(&p); err != nil {
			continue
		}
		out = append(out, &p)
	}
	return out, it.Err()
}

// NotFound is a convenience constructor used by adapter implementations.
func NotFound(collection, id string) error {
	return apperr.New(apperr.KindNotFound, collection+"/"+id+" not found")
}
