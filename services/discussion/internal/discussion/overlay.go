package discussion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/book-social/services/discussion/internal/store"
)

// Reaction is the kind of a user's reaction to a comment.
type Reaction = store.Reaction

// ParseReaction validates a reaction kind from the wire.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", invalid("reaction", "must be one of like, love, laugh, wow, sad, angry")
	}
	return r, nil
}

// Tally counts a comment's reactions per kind.
type Tally struct {
	Total int64 `json:"total"`
	Like  int64 `json:"like"`
	Love  int64 `json:"love"`
	Laugh int64 `json:"laugh"`
	Wow   int64 `json:"wow"`
	Sad   int64 `json:"sad"`
	Angry int64 `json:"angry"`
}

func (t *Tally) add(kind Reaction, n int64) {
	switch kind {
	case store.ReactionLike:
		t.Like += n
	case store.ReactionLove:
		t.Love += n
	case store.ReactionLaugh:
		t.Laugh += n
	case store.ReactionWow:
		t.Wow += n
	case store.ReactionSad:
		t.Sad += n
	case store.ReactionAngry:
		t.Angry += n
	default:
		return
	}
	t.Total += n
}

// Annotation is what the overlay attaches to one comment.
type Annotation struct {
	Tally Tally
	Own   *Reaction
}

// Overlay joins reactions onto a set of comments.
type Overlay struct{}

// Apply annotates ids with one batched storage call. Every id gets an entry.
// Own is only ever set when viewer is non-nil.
func (Overlay) Apply(ctx context.Context, tx store.Tx, ids []int64, viewer *int64) (map[int64]Annotation, error) {
	out := make(map[int64]Annotation, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = Annotation{}
	}

	rows, err := tx.ReactionCounts(ctx, ids, viewer)
	if err != nil {
		return nil, fmt.Errorf("reaction overlay: %w", err)
	}
	for _, rc := range rows {
		a, ok := out[rc.CommentID]
		if !ok {
			continue
		}
		a.Tally.add(rc.Kind, rc.Count)
		if viewer != nil && rc.Mine {
			kind := rc.Kind
			a.Own = &kind
		}
		out[rc.CommentID] = a
	}
	return out, nil
}

// SetReaction records userID's reaction to a comment, replacing any earlier one.
func (Overlay) SetReaction(ctx context.Context, tx store.Tx, commentID, userID int64, kind Reaction) error {
	if commentID <= 0 {
		return invalid("id", "must be positive")
	}
	if !kind.Valid() {
		return invalid("reaction", "unknown kind")
	}
	err := tx.UpsertReaction(ctx, commentID, userID, kind)
	if errors.Is(err, store.ErrNotFound) {
		return notFound(commentID)
	}
	if err != nil {
		return fmt.Errorf("set reaction: %w", err)
	}
	return nil
}

// ClearReaction removes userID's reaction. It reports whether one existed.
func (Overlay) ClearReaction(ctx context.Context, tx store.Tx, commentID, userID int64) (bool, error) {
	if commentID <= 0 {
		return false, invalid("id", "must be positive")
	}
	n, err := tx.DeleteReaction(ctx, commentID, userID)
	if err != nil {
		return false, fmt.Errorf("clear reaction: %w", err)
	}
	return n > 0, nil
}
