package discussion

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/book-social/services/discussion/internal/pathcodec"
	"github.com/example/book-social/services/discussion/internal/store"
)

// DefaultPageSize is the number of root comments per page.
const DefaultPageSize = 20

// Page is one slice of a discussion. Watermark is the lowest id on the page
// and is sent back as previous_last to fetch the next one.
type Page struct {
	Comments  []*Node `json:"comments"`
	Watermark *int64  `json:"watermark,omitempty"`
	HasMore   bool    `json:"has_more"`
}

// Cursor selects the root comments of a page by keyset on id.
type Cursor struct {
	PageSize int
}

func (c Cursor) size() int {
	if c.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.PageSize
}

// TopLevel returns up to one page of a post's top-level comments, newest
// first, strictly older than before when it is set.
func (c Cursor) TopLevel(ctx context.Context, tx store.Tx, postID int64, before *int64) ([]store.Comment, error) {
	if postID <= 0 {
		return nil, invalid("post_id", "must be positive")
	}
	if err := validBefore(before); err != nil {
		return nil, err
	}
	rows, err := tx.Siblings(ctx, postID, pathcodec.Top, before, c.size())
	if err != nil {
		return nil, fmt.Errorf("top-level page: %w", err)
	}
	return rows, nil
}

// Target returns exactly the comment commentID of post postID.
func (c Cursor) Target(ctx context.Context, tx store.Tx, postID, commentID int64) ([]store.Comment, error) {
	if postID <= 0 {
		return nil, invalid("post_id", "must be positive")
	}
	if commentID <= 0 {
		return nil, invalid("comment_id", "must be positive")
	}
	cm, err := tx.GetComment(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && cm.PostID != postID) {
		return nil, notFound(commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	return []store.Comment{cm}, nil
}

// Replies returns up to one page of the direct replies of commentID, newest
// first, strictly older than before when it is set.
func (c Cursor) Replies(ctx context.Context, tx store.Tx, commentID int64, before *int64) ([]store.Comment, error) {
	if commentID <= 0 {
		return nil, invalid("comment_id", "must be positive")
	}
	if err := validBefore(before); err != nil {
		return nil, err
	}
	target, err := tx.GetComment(ctx, commentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(commentID)
	}
	if err != nil {
		return nil, fmt.Errorf("load comment %d: %w", commentID, err)
	}
	rows, err := tx.Siblings(ctx, target.PostID, target.Path.Append(target.ID), before, c.size())
	if err != nil {
		return nil, fmt.Errorf("replies page: %w", err)
	}
	return rows, nil
}

// Page wraps assembled nodes selected by TopLevel or Replies.
func (c Cursor) Page(nodes []*Node) Page {
	p := Page{Comments: nodes, HasMore: len(nodes) == c.size()}
	if p.Comments == nil {
		p.Comments = []*Node{}
	}
	if n := len(p.Comments); n > 0 {
		last := p.Comments[n-1].ID
		p.Watermark = &last
	}
	return p
}

// Single wraps the tree of a targeted comment. It has no continuation.
func (c Cursor) Single(nodes []*Node) Page {
	if nodes == nil {
		nodes = []*Node{}
	}
	return Page{Comments: nodes}
}

func validBefore(before *int64) error {
	if before != nil && *before <= 0 {
		return invalid("previous_last", "must be positive")
	}
	return nil
}
