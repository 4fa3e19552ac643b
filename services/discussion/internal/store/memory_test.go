package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func insert(t *testing.T, s *MemoryStore, c NewComment) int64 {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	id, err := tx.InsertComment(ctx, c)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return id
}

func TestMemoryStore_InsertAssignsIncreasingIDs(t *testing.T) {
	s := NewMemoryStore()
	a := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a"})
	b := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "b"})
	if b <= a {
		t.Fatalf("expected increasing ids, got %d then %d", a, b)
	}
}

func TestMemoryStore_RollbackDiscardsWrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	id, _ := tx.InsertComment(ctx, NewComment{PostID: 1, AuthorID: 7, Content: "gone"})
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	tx, _ = s.Begin(ctx)
	defer tx.Rollback(ctx)
	if _, err := tx.GetComment(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after rollback, got %v", err)
	}
}

func TestMemoryStore_RollbackAfterCommitIsNoop(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	tx, _ := s.Begin(ctx)
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit: %v", err)
	}
	if _, err := tx.GetComment(ctx, 1); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected ErrTxDone, got %v", err)
	}
}

func TestMemoryStore_UpdateContent_AuthorOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "original"})

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx)

	n, err := tx.UpdateContent(ctx, id, 8, "hacked")
	if err != nil || n != 0 {
		t.Fatalf("non-author update: n=%d err=%v", n, err)
	}
	n, err = tx.UpdateContent(ctx, id, 7, "edited")
	if err != nil || n != 1 {
		t.Fatalf("author update: n=%d err=%v", n, err)
	}
	c, _ := tx.GetComment(ctx, id)
	if c.Content != "edited" || c.UpdatedAt == nil {
		t.Fatalf("unexpected comment after update: %+v", c)
	}
}

func TestMemoryStore_DeleteSubtreeRemovesRepliesAndReactions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	root := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "root"})
	reply := insert(t, s, NewComment{PostID: 1, AuthorID: 8, Content: "reply", Path: pathcodec.Top.Append(root)})
	deep := insert(t, s, NewComment{PostID: 1, AuthorID: 9, Content: "deep", Path: pathcodec.MustFromSegments(root, reply)})
	other := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "other"})

	tx, _ := s.Begin(ctx)
	if err := tx.UpsertReaction(ctx, deep, 3, ReactionLike); err != nil {
		t.Fatalf("react: %v", err)
	}
	_ = tx.Commit(ctx)

	tx, _ = s.Begin(ctx)
	deleted, replies, err := tx.DeleteSubtree(ctx, root, 8)
	if err != nil || deleted != 0 {
		t.Fatalf("non-author delete: deleted=%d err=%v", deleted, err)
	}
	deleted, replies, err = tx.DeleteSubtree(ctx, root, 7)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 1 || replies != 2 {
		t.Fatalf("expected 1 deleted with 2 replies, got %d/%d", deleted, replies)
	}
	_ = tx.Commit(ctx)

	tx, _ = s.Begin(ctx)
	defer tx.Rollback(ctx)
	for _, id := range []int64{root, reply, deep} {
		if _, err := tx.GetComment(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected %d gone, got %v", id, err)
		}
	}
	if _, err := tx.GetComment(ctx, other); err != nil {
		t.Fatalf("unrelated comment removed: %v", err)
	}
	counts, _ := tx.ReactionCounts(ctx, []int64{deep}, nil)
	if len(counts) != 0 {
		t.Fatalf("expected reactions removed, got %+v", counts)
	}
}

func TestMemoryStore_SiblingsKeyset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	var ids []int64
	for i := 0; i < 5; i++ {
		ids = append(ids, insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: strings.Repeat("x", i+1)}))
	}
	insert(t, s, NewComment{PostID: 2, AuthorID: 7, Content: "elsewhere"})
	insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "reply", Path: pathcodec.Top.Append(ids[0])})

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx)

	page, err := tx.Siblings(ctx, 1, pathcodec.Top, nil, 2)
	if err != nil {
		t.Fatalf("siblings: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[4] || page[1].ID != ids[3] {
		t.Fatalf("unexpected first page: %+v", page)
	}

	before := page[1].ID
	page, _ = tx.Siblings(ctx, 1, pathcodec.Top, &before, 10)
	if len(page) != 3 || page[0].ID != ids[2] || page[2].ID != ids[0] {
		t.Fatalf("unexpected second page: %+v", page)
	}
}

func TestMemoryStore_SubtreesRespectsPrefixRootsAndLevel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a"})
	b := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "b"})
	a1 := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a1", Path: pathcodec.MustFromSegments(a)})
	a2 := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a2", Path: pathcodec.MustFromSegments(a, a1)})
	insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a3", Path: pathcodec.MustFromSegments(a, a1, a2)})
	insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "b1", Path: pathcodec.MustFromSegments(b)})

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx)

	got, err := tx.Subtrees(ctx, 1, pathcodec.Top, []int64{a}, 2)
	if err != nil {
		t.Fatalf("subtrees: %v", err)
	}
	if len(got) != 2 || got[0].ID != a2 || got[1].ID != a1 {
		t.Fatalf("unexpected subtree rows: %+v", got)
	}
}

func TestMemoryStore_ReactionCounts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := insert(t, s, NewComment{PostID: 1, AuthorID: 7, Content: "a"})

	tx, _ := s.Begin(ctx)
	defer tx.Rollback(ctx)

	_ = tx.UpsertReaction(ctx, id, 1, ReactionLike)
	_ = tx.UpsertReaction(ctx, id, 2, ReactionLike)
	_ = tx.UpsertReaction(ctx, id, 3, ReactionSad)
	// re-reacting replaces the previous kind
	_ = tx.UpsertReaction(ctx, id, 3, ReactionLike)

	viewer := int64(2)
	counts, err := tx.ReactionCounts(ctx, []int64{id}, &viewer)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if len(counts) != 1 || counts[0].Kind != ReactionLike || counts[0].Count != 3 || !counts[0].Mine {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	if err := tx.UpsertReaction(ctx, 999, 1, ReactionLike); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing comment, got %v", err)
	}
	n, _ := tx.DeleteReaction(ctx, id, 1)
	if n != 1 {
		t.Fatalf("expected 1 reaction removed, got %d", n)
	}
}

func TestMigrations_Embedded(t *testing.T) {
	ms, err := Migrations()
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if len(ms) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(ms))
	}
	if ms[0].Name != "0001_discussion.sql" {
		t.Fatalf("expected ordered names, got %q first", ms[0].Name)
	}
	if !strings.Contains(ms[0].SQL, "comment_reactions") {
		t.Fatal("first migration should create comment_reactions")
	}
}
