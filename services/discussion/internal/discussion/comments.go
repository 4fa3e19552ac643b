package discussion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/example/book-social/services/discussion/internal/store"
)

// MaxContentLength caps comment content, in characters.
const MaxContentLength = 10000

// NewComment is a create request. PostID may be omitted for replies; it is
// taken from the parent.
type NewComment struct {
	PostID   int64
	AuthorID int64
	Content  string
	ParentID *int64
}

// Comments creates, edits and removes single comment rows. It never commits
// the transaction it is given.
type Comments struct{}

// Create inserts a comment and returns the stored row. A reply's path is the
// parent's path with the parent's id appended, and its post is the parent's post.
func (Comments) Create(ctx context.Context, tx store.Tx, in NewComment) (store.Comment, error) {
	content, err := validContent(in.Content)
	if err != nil {
		return store.Comment{}, err
	}
	if in.AuthorID <= 0 {
		return store.Comment{}, invalid("author_id", "must be positive")
	}

	row := store.NewComment{PostID: in.PostID, AuthorID: in.AuthorID, Content: content}
	if in.ParentID == nil {
		if in.PostID <= 0 {
			return store.Comment{}, invalid("post_id", "must be positive")
		}
	} else {
		if *in.ParentID <= 0 {
			return store.Comment{}, invalid("parent_id", "must be positive")
		}
		if in.PostID < 0 {
			return store.Comment{}, invalid("post_id", "must be positive")
		}
		parent, err := tx.GetComment(ctx, *in.ParentID)
		if errors.Is(err, store.ErrNotFound) {
			return store.Comment{}, notFound(*in.ParentID)
		}
		if err != nil {
			return store.Comment{}, fmt.Errorf("load parent %d: %w", *in.ParentID, err)
		}
		if in.PostID != 0 && in.PostID != parent.PostID {
			return store.Comment{}, invalid("post_id", "does not match the parent comment's post")
		}
		row.PostID = parent.PostID
		row.Path = parent.Path.Append(parent.ID)
	}

	id, err := tx.InsertComment(ctx, row)
	if err != nil {
		return store.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return store.Comment{ID: id, PostID: row.PostID, AuthorID: row.AuthorID, Content: row.Content, Path: row.Path}, nil
}

// Update replaces the content of a comment owned by authorID. It returns the
// number of rows changed; zero is reported as ErrUnauthorized whether the
// comment is missing or owned by someone else.
func (Comments) Update(ctx context.Context, tx store.Tx, id, authorID int64, content string) (int64, error) {
	if id <= 0 {
		return 0, invalid("id", "must be positive")
	}
	content, err := validContent(content)
	if err != nil {
		return 0, err
	}
	n, err := tx.UpdateContent(ctx, id, authorID, content)
	if err != nil {
		return 0, fmt.Errorf("update comment: %w", err)
	}
	if n == 0 {
		return 0, unauthorized(id)
	}
	return n, nil
}

// Delete removes a comment owned by authorID together with its whole reply
// subtree. The returned count covers the comment itself and every reply.
func (Comments) Delete(ctx context.Context, tx store.Tx, id, authorID int64) (int64, error) {
	if id <= 0 {
		return 0, invalid("id", "must be positive")
	}
	n, replies, err := tx.DeleteSubtree(ctx, id, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete comment: %w", err)
	}
	if n == 0 {
		return 0, unauthorized(id)
	}
	return n + replies, nil
}

func validContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("content", "must not be empty")
	}
	if utf8.RuneCountInString(s) > MaxContentLength {
		return "", invalid("content", fmt.Sprintf("must be at most %d characters", MaxContentLength))
	}
	return s, nil
}
