package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
)

// Comment represents a single comment row.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Content   string
	Path      pathcodec.Path
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NewComment is the insert shape; the id is assigned by the store.
type NewComment struct {
	PostID   int64
	AuthorID int64
	Content  string
	Path     pathcodec.Path
}

// Reaction is the kind of a stored comment reaction.
type Reaction string

const (
	ReactionLike  Reaction = "like"
	ReactionLove  Reaction = "love"
	ReactionLaugh Reaction = "laugh"
	ReactionWow   Reaction = "wow"
	ReactionSad   Reaction = "sad"
	ReactionAngry Reaction = "angry"
)

// Reactions lists every valid kind in display order.
var Reactions = []Reaction{ReactionLike, ReactionLove, ReactionLaugh, ReactionWow, ReactionSad, ReactionAngry}

// Valid reports whether r is one of the known kinds.
func (r Reaction) Valid() bool {
	for _, k := range Reactions {
		if r == k {
			return true
		}
	}
	return false
}

// ReactionCount is one (comment, kind) bucket of the overlay join.
// Mine is set when the viewer passed to ReactionCounts is among the reactors.
type ReactionCount struct {
	CommentID int64
	Kind      Reaction
	Count     int64
	Mine      bool
}

// Sentinel errors
var (
	ErrNotFound = errors.New("store: not found")
	ErrTxDone   = errors.New("store: transaction already committed or rolled back")
)

// Store opens units of work.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
}

// Tx is a unit of work. Nothing is visible to other transactions until Commit.
// Rollback after Commit is a no-op.
type Tx interface {
	InsertComment(ctx context.Context, c NewComment) (int64, error)
	// GetComment returns ErrNotFound when the id does not exist.
	GetComment(ctx context.Context, id int64) (Comment, error)
	// UpdateContent changes content only where both id and author match.
	UpdateContent(ctx context.Context, id, authorID int64, content string) (int64, error)
	// DeleteSubtree removes the comment (when the author matches), every
	// comment below it, and their reactions. deleted is 0 or 1.
	DeleteSubtree(ctx context.Context, id, authorID int64) (deleted, replies int64, err error)

	// Siblings lists comments of a post whose path equals path, id descending,
	// strictly below before when it is set.
	Siblings(ctx context.Context, postID int64, path pathcodec.Path, before *int64, limit int) ([]Comment, error)
	// Subtrees lists every comment whose path is prefix followed by one of
	// rootIDs (and anything after), capped at maxLevel path segments.
	Subtrees(ctx context.Context, postID int64, prefix pathcodec.Path, rootIDs []int64, maxLevel int) ([]Comment, error)

	// ReactionCounts aggregates reactions per (comment, kind) for ids in one pass.
	ReactionCounts(ctx context.Context, ids []int64, viewer *int64) ([]ReactionCount, error)
	// UpsertReaction returns ErrNotFound when the comment does not exist.
	UpsertReaction(ctx context.Context, commentID, userID int64, kind Reaction) error
	DeleteReaction(ctx context.Context, commentID, userID int64) (int64, error)

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
