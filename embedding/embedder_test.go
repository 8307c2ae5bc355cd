package embedding

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Flyns157/API-recommendation/model"
	"github.com/Flyns157/API-recommendation/store"
	"github.com/Flyns157/API-recommendation/textenc"
)

func newTestEmbedder(t *testing.T, fake *fakeDocumentStore) *Embedder {
	t.Helper()
	enc := textenc.NewHashEncoder("test-model", 16)
	e, err := New(store.NewTyped(fake), enc, time.Hour, DefaultWeights(), logrus.NewEntry(logrus.New()))
	require.NoError(t, err)
	return e
}

func TestEmbedUserIsDeterministicAndCacheable(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionUsers, "u1", model.User{
		ID: "u1", Name: "Ada", Description: "loves graphs",
	})

	e := newTestEmbedder(t, fake)
	ctx := context.Background()

	v1, err := e.EmbedUser(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, v1)

	// A second call should hit the freshly written cache and return a
	// bit-identical vector.
	v2, err := e.EmbedUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestEmbedUserWithInterestsAndFollows(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionInterests, "i1", model.Interest{ID: "i1", Name: "golang"})
	fake.put(model.CollectionUsers, "friend", model.User{
		ID: "friend", Name: "Bob", Description: "friend of ada",
	})
	fake.put(model.CollectionUsers, "u1", model.User{
		ID: "u1", Name: "Ada", Description: "loves graphs",
		Interests: []string{"i1"}, Follows: []string{"friend"},
	})

	e := newTestEmbedder(t, fake)
	ctx := context.Background()

	v, err := e.EmbedUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestEmbedUserFollowCycleTerminatesWithBaseFallback(t *testing.T) {
	fake := newFakeDocumentStore()
	// u1 follows u2, u2 follows u1: a follow cycle.
	fake.put(model.CollectionUsers, "u1", model.User{
		ID: "u1", Name: "A", Description: "a desc", Follows: []string{"u2"},
	})
	fake.put(model.CollectionUsers, "u2", model.User{
		ID: "u2", Name: "B", Description: "b desc", Follows: []string{"u1"},
	})

	e := newTestEmbedder(t, fake)
	ctx := context.Background()

	v, err := e.EmbedUser(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, v)

	// The cycle is broken when u1 is reached again through u2 while u1 is
	// still on the stack: that inner call returns u1's base embedding. The
	// base embedding omits the follow term, so it also computes directly
	// for a cycle member (u2 here) without any recursion.
	base, err := e.baseUserEmbedding(ctx, mustUser(t, fake, "u2"), newReentranceSet())
	require.NoError(t, err)
	assert.NotEmpty(t, base)
}

func mustUser(t *testing.T, fake *fakeDocumentStore, id string) *model.User {
	t.Helper()
	var u model.User
	err := fake.Get(context.Background(), model.CollectionUsers, id, &u)
	require.NoError(t, err)
	return &u
}

func TestEmbedUserMissingInterestsAndFollowsDegradesGracefully(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionUsers, "solo", model.User{
		ID: "solo", Name: "Solo", Description: "no connections",
	})

	e := newTestEmbedder(t, fake)
	v, err := e.EmbedUser(context.Background(), "solo")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestEmbedPostComposesKeysTitleContentAuthor(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionKeys, "k1", model.Key{ID: "k1", Name: "golang"})
	fake.put(model.CollectionUsers, "author", model.User{ID: "author", Description: "writes posts"})
	fake.put(model.CollectionPosts, "p1", model.Post{
		ID: "p1", ThreadID: "t1", AuthorID: "author",
		Title: "Hello", Content: "World", Keys: []string{"k1"},
	})

	e := newTestEmbedder(t, fake)
	v, err := e.EmbedPost(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestEmbedThreadComposesOwnerNameMembersPosts(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionUsers, "owner", model.User{ID: "owner", Description: "owns the thread"})
	fake.put(model.CollectionUsers, "member", model.User{ID: "member", Description: "a member"})
	fake.put(model.CollectionPosts, "p1", model.Post{
		ID: "p1", ThreadID: "t1", AuthorID: "owner", Title: "T", Content: "C",
	})
	fake.put(model.CollectionThreads, "t1", model.Thread{
		ID: "t1", Name: "General", OwnerID: "owner", Members: []string{"member"},
	})

	e := newTestEmbedder(t, fake)
	v, err := e.EmbedThread(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, v, 16)
}

func TestEmbedInterestAndKeyAreNameEncodings(t *testing.T) {
	fake := newFakeDocumentStore()
	fake.put(model.CollectionInterests, "i1", model.Interest{ID: "i1", Name: "music"})
	fake.put(model.CollectionKeys, "k1", model.Key{ID: "k1", Name: "music"})

	e := newTestEmbedder(t, fake)
	ctx := context.Background()

	iv, err := e.EmbedInterest(ctx, "i1")
	require.NoError(t, err)
	kv, err := e.EmbedKey(ctx, "k1")
	require.NoError(t, err)

	// Same underlying name text, both encoded via the same encoder
	// instance, so the vectors must be identical.
	assert.Equal(t, iv, kv)
}
