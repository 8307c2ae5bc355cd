// Package model defines the entity shapes read from the document store.
// All ids are opaque stable strings normalized at the facade boundary; no
// internal code branches on id representation.
package model

import "time"

// CachedEmbedding is the persisted shape of an entity's memoized embedding,
// stored under the "embedding" sub-field of its owning document.
type CachedEmbedding struct {
	CreatedAt time.Time `bson:"date" json:"date"`
	Vector    []float64 `bson:"vector" json:"vector"`
}

// Fresh reports whether the cached embedding is still valid under ttl.
func (c *CachedEmbedding) Fresh(now time.Time, ttl time.Duration) bool {
	if c == nil {
		return false
	}
	return now.Sub(c.CreatedAt) < ttl
}

// User is a social-platform account.
type User struct {
	ID          string           `bson:"_id" json:"id"`
	Name        string           `bson:"name" json:"name"`
	Username    string           `bson:"username" json:"username"`
	Description string           `bson:"description" json:"description"`
	RoleID      string           `bson:"role_id" json:"role_id"`
	Interests   []string         `bson:"interests" json:"interests"`
	Follows     []string         `bson:"follows" json:"follows"`
	Blocks      []string         `bson:"blocks" json:"blocks"`
	Embedding   *CachedEmbedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// Thread is a discussion container owned by a user.
type Thread struct {
	ID        string           `bson:"_id" json:"id"`
	Name      string           `bson:"name" json:"name"`
	OwnerID   string           `bson:"owner_id" json:"owner_id"`
	Members   []string         `bson:"members" json:"members"`
	Admins    []string         `bson:"admins" json:"admins"`
	Embedding *CachedEmbedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// Post is a message authored within a thread.
type Post struct {
	ID         string           `bson:"_id" json:"id"`
	ThreadID   string           `bson:"thread_id" json:"thread_id"`
	AuthorID   string           `bson:"author_id" json:"author_id"`
	Title      string           `bson:"title" json:"title"`
	Content    string           `bson:"content" json:"content"`
	Keys       []string         `bson:"keys" json:"keys"`
	Likers     []string         `bson:"likers" json:"likers"`
	Commenters []string         `bson:"commenters" json:"commenters"`
	Embedding  *CachedEmbedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// Interest is a named topic a user may subscribe to.
type Interest struct {
	ID        string           `bson:"_id" json:"id"`
	Name      string           `bson:"name" json:"name"`
	Embedding *CachedEmbedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// Key is a post tag.
type Key struct {
	ID        string           `bson:"_id" json:"id"`
	Name      string           `bson:"name" json:"name"`
	Embedding *CachedEmbedding `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// Role carries a name and the set of role names it extends.
type Role struct {
	Name    string   `bson:"_id" json:"name"`
	Extends []string `bson:"extends" json:"extends"`
}

// Collection names used across the document and graph stores.
const (
	CollectionUsers     = "users"
	CollectionPosts     = "posts"
	CollectionThreads   = "threads"
	CollectionInterests = "interests"
	CollectionKeys      = "keys"
	CollectionRoles     = "roles"
)

// Graph node labels.
const (
	LabelUser     = "User"
	LabelPost     = "Post"
	LabelThread   = "Thread"
	LabelKey      = "Key"
	LabelRole     = "Role"
	LabelInterest = "Interest"
)

// Graph edge labels: one canonical vocabulary, used consistently on both
// write and read sides.
const (
	EdgeHasRole       = "HAS_ROLE"
	EdgeFollows       = "FOLLOWS"
	EdgeBlocks        = "BLOCKS"
	EdgeInterestedBy  = "INTERESTED_BY"
	EdgeOwns          = "OWNS"
	EdgeMemberOf      = "MEMBER_OF"
	EdgeAdminOf       = "ADMIN_OF"
	EdgeWritedBy      = "WRITED_BY"
	EdgePostedIn      = "POSTED_IN"
	EdgeHasKey        = "HAS_KEY"
	EdgeLikes         = "LIKES"
	EdgeHasComment    = "HAS_COMMENT"
	EdgeExtends       = "EXTENDS"
)
