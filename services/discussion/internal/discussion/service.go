package discussion

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/analytics"
	"github.com/example/book-social/services/discussion/internal/render"
	"github.com/example/book-social/services/discussion/internal/store"
)

// Events receives lifecycle notifications after a successful commit.
// *analytics.Publisher satisfies it.
type Events interface {
	Publish(subject, eventName, userID string, props map[string]any)
}

// Config tunes paging and tree expansion.
type Config struct {
	PageSize   int
	ReplyDepth int
}

// ReadRequest selects a discussion page. CommentID, when set, targets that
// single comment and PreviousLast is ignored.
type ReadRequest struct {
	PostID       int64
	CommentID    *int64
	PreviousLast *int64
	Viewer       *int64
	WithTally    bool
}

// RepliesRequest selects a page of direct replies to CommentID.
type RepliesRequest struct {
	CommentID    int64
	PreviousLast *int64
	Viewer       *int64
	WithTally    bool
}

// Service runs every operation in its own transaction.
type Service struct {
	store     store.Store
	comments  Comments
	overlay   Overlay
	assembler Assembler
	cursor    Cursor
	events    Events
	log       *zap.Logger
}

// NewService wires the engine. events and log may be nil.
func NewService(st store.Store, r *render.Renderer, events Events, log *zap.Logger, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     st,
		assembler: Assembler{Renderer: r, Depth: cfg.ReplyDepth},
		cursor:    Cursor{PageSize: cfg.PageSize},
		events:    events,
		log:       log,
	}
}

// Ping reports whether storage is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// inTx runs fn in a transaction and commits when it returns nil.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx store.Tx) error) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return s.storageError(op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		if KindOf(err) == 0 {
			return s.storageError(op, err)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return s.storageError(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *Service) storageError(op string, err error) error {
	s.log.Error("discussion storage failure", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// CreateComment stores a new comment and returns its id.
func (s *Service) CreateComment(ctx context.Context, in NewComment) (int64, error) {
	var c store.Comment
	err := s.inTx(ctx, "create_comment", func(tx store.Tx) error {
		var err error
		c, err = s.comments.Create(ctx, tx, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	props := map[string]any{"comment_id": c.ID, "post_id": c.PostID}
	if !c.Path.IsTopLevel() {
		parentID, _ := c.Path.Parent()
		props["parent_id"] = parentID
	}
	s.publish(analytics.SubjectCommentCreated, "comment_created", c.AuthorID, props)
	return c.ID, nil
}

// UpdateComment replaces the content of the caller's own comment.
func (s *Service) UpdateComment(ctx context.Context, id, authorID int64, content string) error {
	err := s.inTx(ctx, "update_comment", func(tx store.Tx) error {
		_, err := s.comments.Update(ctx, tx, id, authorID, content)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(analytics.SubjectCommentUpdated, "comment_updated", authorID, map[string]any{"comment_id": id})
	return nil
}

// DeleteComment removes the caller's own comment and all replies below it.
func (s *Service) DeleteComment(ctx context.Context, id, authorID int64) error {
	var removed int64
	err := s.inTx(ctx, "delete_comment", func(tx store.Tx) error {
		var err error
		removed, err = s.comments.Delete(ctx, tx, id, authorID)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(analytics.SubjectCommentDeleted, "comment_deleted", authorID, map[string]any{
		"comment_id": id,
		"removed":    removed,
	})
	return nil
}

// ReadDiscussion returns a page of top-level comments, or the single
// targeted comment, each expanded into its reply tree.
func (s *Service) ReadDiscussion(ctx context.Context, req ReadRequest) (Page, error) {
	var page Page
	err := s.inTx(ctx, "read_discussion", func(tx store.Tx) error {
		if req.CommentID != nil {
			roots, err := s.cursor.Target(ctx, tx, req.PostID, *req.CommentID)
			if err != nil {
				return err
			}
			nodes, err := s.assembler.Assemble(ctx, tx, roots, req.Viewer, req.WithTally)
			if err != nil {
				return err
			}
			page = s.cursor.Single(nodes)
			return nil
		}
		roots, err := s.cursor.TopLevel(ctx, tx, req.PostID, req.PreviousLast)
		if err != nil {
			return err
		}
		nodes, err := s.assembler.Assemble(ctx, tx, roots, req.Viewer, req.WithTally)
		if err != nil {
			return err
		}
		page = s.cursor.Page(nodes)
		return nil
	})
	return page, err
}

// ReadReplies returns a page of the direct replies of a comment, each with
// a fresh depth budget.
func (s *Service) ReadReplies(ctx context.Context, req RepliesRequest) (Page, error) {
	var page Page
	err := s.inTx(ctx, "read_replies", func(tx store.Tx) error {
		roots, err := s.cursor.Replies(ctx, tx, req.CommentID, req.PreviousLast)
		if err != nil {
			return err
		}
		nodes, err := s.assembler.Assemble(ctx, tx, roots, req.Viewer, req.WithTally)
		if err != nil {
			return err
		}
		page = s.cursor.Page(nodes)
		return nil
	})
	return page, err
}

// React sets the caller's reaction to a comment.
func (s *Service) React(ctx context.Context, commentID, userID int64, kind Reaction) error {
	err := s.inTx(ctx, "react", func(tx store.Tx) error {
		return s.overlay.SetReaction(ctx, tx, commentID, userID, kind)
	})
	if err != nil {
		return err
	}
	s.publish(analytics.SubjectReactionSet, "reaction_set", userID, map[string]any{
		"comment_id": commentID,
		"reaction":   string(kind),
	})
	return nil
}

// Unreact removes the caller's reaction, if any.
func (s *Service) Unreact(ctx context.Context, commentID, userID int64) error {
	var existed bool
	err := s.inTx(ctx, "unreact", func(tx store.Tx) error {
		var err error
		existed, err = s.overlay.ClearReaction(ctx, tx, commentID, userID)
		return err
	})
	if err != nil || !existed {
		return err
	}
	s.publish(analytics.SubjectReactionCleared, "reaction_cleared", userID, map[string]any{"comment_id": commentID})
	return nil
}

func (s *Service) publish(subject, name string, userID int64, props map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(subject, name, strconv.FormatInt(userID, 10), props)
}
