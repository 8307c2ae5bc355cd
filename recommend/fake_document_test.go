package recommend

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Flyns157/API-recommendation/apperr"
	"github.com/Flyns157/API-recommendation/embedding"
	"github.com/Flyns157/API-recommendation/store"
	"github.com/Flyns157/API-recommendation/textenc"
)

type fakeDocumentStore struct {
	docs map[string]map[string]any
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[string]map[string]any)}
}

func (f *fakeDocumentStore) put(collection, id string, doc any) {
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]any)
	}
	raw, _ := json.Marshal(doc)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	f.docs[collection][id] = m
}

func (f *fakeDocumentStore) Get(ctx context.Context, collection, id string, out any) error {
	coll, ok := f.docs[collection]
	if !ok {
		return apperr.New(apperr.KindNotFound, collection+"/"+id+" not found")
	}
	doc, ok := coll[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, collection+"/"+id+" not found")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeDocumentStore) Find(ctx context.Context, collection string, filter map[string]any) (store.RecordIterator, error) {
	coll := f.docs[collection]
	var matched []any
	for _, doc := range coll {
		if matchesFilter(doc, filter) {
			matched = append(matched, doc)
		}
	}
	return &fakeIterator{docs: matched, pos: -1}, nil
}

func matchesFilter(doc any, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return false
	}
	for k, v := range filter {
		if m[k] != v {
			return false
		}
	}
	return true
}

func (f *fakeDocumentStore) UpdateEmbedding(ctx context.Context, collection, id string, vector []float64, at time.Time) error {
	coll, ok := f.docs[collection]
	if !ok {
		return apperr.New(apperr.KindNotFound, collection+"/"+id+" not found")
	}
	doc, ok := coll[id]
	if !ok {
		return apperr.New(apperr.KindNotFound, collection+"/"+id+" not found")
	}
	m, _ := doc.(map[string]any)
	m["embedding"] = map[string]any{"date": at, "vector": vector}
	coll[id] = m
	return nil
}

type fakeIterator struct {
	docs []any
	pos  int
}

func (it *fakeIterator) Next(ctx context.Context) bool {
	it.pos++
	return it.pos < len(it.docs)
}

func (it *fakeIterator) Decode(out any) error {
	raw, err := json.Marshal(it.docs[it.pos])
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (it *fakeIterator) Err() error                      { return nil }
func (it *fakeIterator) Close(ctx context.Context) error { return nil }

func newTestEmbedderForEngine(t *testing.T, fake *fakeDocumentStore) *embedding.Embedder {
	t.Helper()
	enc := textenc.NewHashEncoder("test-model", 16)
	e, err := embedding.New(store.NewTyped(fake), enc, time.Hour, embedding.DefaultWeights(), logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	return e
}
