package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
)

type reactionKey struct {
	commentID int64
	userID    int64
}

// MemoryStore is a development-only in-memory implementation.
// A transaction holds the store lock until it commits or rolls back, so
// transactions are fully serialized.
type MemoryStore struct {
	mu        sync.Mutex
	nextID    int64
	comments  map[int64]Comment
	reactions map[reactionKey]Reaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments:  make(map[int64]Comment),
		reactions: make(map[reactionKey]Reaction),
	}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	tx := &memoryTx{
		s:         s,
		nextID:    s.nextID,
		comments:  make(map[int64]Comment, len(s.comments)),
		reactions: make(map[reactionKey]Reaction, len(s.reactions)),
	}
	for k, v := range s.comments {
		tx.comments[k] = v
	}
	for k, v := range s.reactions {
		tx.reactions[k] = v
	}
	return tx, nil
}

type memoryTx struct {
	s         *MemoryStore
	done      bool
	nextID    int64
	comments  map[int64]Comment
	reactions map[reactionKey]Reaction
}

func (tx *memoryTx) Commit(context.Context) error {
	if tx.done {
		return ErrTxDone
	}
	tx.s.nextID = tx.nextID
	tx.s.comments = tx.comments
	tx.s.reactions = tx.reactions
	tx.done = true
	tx.s.mu.Unlock()
	return nil
}

func (tx *memoryTx) Rollback(context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.s.mu.Unlock()
	return nil
}

func (tx *memoryTx) InsertComment(_ context.Context, c NewComment) (int64, error) {
	if tx.done {
		return 0, ErrTxDone
	}
	tx.nextID++
	tx.comments[tx.nextID] = Comment{
		ID:        tx.nextID,
		PostID:    c.PostID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		Path:      c.Path,
		CreatedAt: time.Now().UTC(),
	}
	return tx.nextID, nil
}

func (tx *memoryTx) GetComment(_ context.Context, id int64) (Comment, error) {
	if tx.done {
		return Comment{}, ErrTxDone
	}
	c, ok := tx.comments[id]
	if !ok {
		return Comment{}, ErrNotFound
	}
	return c, nil
}

func (tx *memoryTx) UpdateContent(_ context.Context, id, authorID int64, content string) (int64, error) {
	if tx.done {
		return 0, ErrTxDone
	}
	c, ok := tx.comments[id]
	if !ok || c.AuthorID != authorID {
		return 0, nil
	}
	now := time.Now().UTC()
	c.Content = content
	c.UpdatedAt = &now
	tx.comments[id] = c
	return 1, nil
}

func (tx *memoryTx) DeleteSubtree(_ context.Context, id, authorID int64) (int64, int64, error) {
	if tx.done {
		return 0, 0, ErrTxDone
	}
	c, ok := tx.comments[id]
	if !ok || c.AuthorID != authorID {
		return 0, 0, nil
	}
	below := c.Path.Append(c.ID)
	removed := map[int64]struct{}{id: {}}
	for cid, other := range tx.comments {
		if other.Path.HasPrefix(below) {
			removed[cid] = struct{}{}
		}
	}
	for cid := range removed {
		delete(tx.comments, cid)
	}
	for k := range tx.reactions {
		if _, gone := removed[k.commentID]; gone {
			delete(tx.reactions, k)
		}
	}
	return 1, int64(len(removed) - 1), nil
}

func (tx *memoryTx) Siblings(_ context.Context, postID int64, path pathcodec.Path, before *int64, limit int) ([]Comment, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	var out []Comment
	for _, c := range tx.comments {
		if c.PostID != postID || !c.Path.Equal(path) {
			continue
		}
		if before != nil && c.ID >= *before {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *memoryTx) Subtrees(_ context.Context, postID int64, prefix pathcodec.Path, rootIDs []int64, maxLevel int) ([]Comment, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	roots := make(map[int64]struct{}, len(rootIDs))
	for _, id := range rootIDs {
		roots[id] = struct{}{}
	}
	var out []Comment
	for _, c := range tx.comments {
		if c.PostID != postID || c.Path.Level() > maxLevel || !c.Path.IsDescendantOf(prefix) {
			continue
		}
		head, _ := c.Path.Segment(prefix.Level())
		if _, ok := roots[head]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (tx *memoryTx) ReactionCounts(_ context.Context, ids []int64, viewer *int64) ([]ReactionCount, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	type bucket struct {
		commentID int64
		kind      Reaction
	}
	counts := make(map[bucket]*ReactionCount)
	for k, kind := range tx.reactions {
		if _, ok := want[k.commentID]; !ok {
			continue
		}
		b := bucket{k.commentID, kind}
		rc, ok := counts[b]
		if !ok {
			rc = &ReactionCount{CommentID: k.commentID, Kind: kind}
			counts[b] = rc
		}
		rc.Count++
		if viewer != nil && k.userID == *viewer {
			rc.Mine = true
		}
	}
	out := make([]ReactionCount, 0, len(counts))
	for _, rc := range counts {
		out = append(out, *rc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CommentID != out[j].CommentID {
			return out[i].CommentID < out[j].CommentID
		}
		return out[i].Kind < out[j].Kind
	})
	return out, nil
}

func (tx *memoryTx) UpsertReaction(_ context.Context, commentID, userID int64, kind Reaction) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.comments[commentID]; !ok {
		return ErrNotFound
	}
	tx.reactions[reactionKey{commentID, userID}] = kind
	return nil
}

func (tx *memoryTx) DeleteReaction(_ context.Context, commentID, userID int64) (int64, error) {
	if tx.done {
		return 0, ErrTxDone
	}
	k := reactionKey{commentID, userID}
	if _, ok := tx.reactions[k]; !ok {
		return 0, nil
	}
	delete(tx.reactions, k)
	return 1, nil
}
