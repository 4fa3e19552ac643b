package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/api"
	"github.com/example/book-social/internal/platform/auth"
	"github.com/example/book-social/internal/platform/httpserver"
	"github.com/example/book-social/services/discussion/internal/discussion"
	"github.com/example/book-social/services/discussion/internal/idempotency"
)

// IdempotencyHeader carries the client key that makes create retry-safe.
const IdempotencyHeader = "Idempotency-Key"

const maxBodyBytes = 1 << 20

// Discussion is the engine surface the handlers depend on.
type Discussion interface {
	CreateComment(ctx context.Context, in discussion.NewComment) (int64, error)
	UpdateComment(ctx context.Context, id, authorID int64, content string) error
	DeleteComment(ctx context.Context, id, authorID int64) error
	ReadDiscussion(ctx context.Context, req discussion.ReadRequest) (discussion.Page, error)
	ReadReplies(ctx context.Context, req discussion.RepliesRequest) (discussion.Page, error)
	React(ctx context.Context, commentID, userID int64, kind discussion.Reaction) error
	Unreact(ctx context.Context, commentID, userID int64) error
}

type createCommentRequest struct {
	PostID   int64  `json:"post_id" validate:"gte=0"`
	ParentID *int64 `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
	Content  string `json:"content" validate:"required,max=10000"`
}

type createCommentResponse struct {
	ID int64 `json:"id"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

type reactionRequest struct {
	Reaction string `json:"reaction" validate:"required,oneof=like love laugh wow sad angry"`
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	rid := httpserver.RequestIDFromContext(r.Context())
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", rid, nil)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeValidation(w, rid, err)
		return false
	}
	return true
}

// CreateComment handles POST /v1/comments
func CreateComment(svc Discussion, idem idempotency.Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", rid)
			return
		}

		var req createCommentRequest
		if !decode(w, r, &req) {
			return
		}

		var claimed string
		if h := r.Header.Get(IdempotencyHeader); h != "" && idem != nil {
			key, err := idempotency.Key("create_comment", userID, h)
			if err != nil {
				api.BadRequest(w, "INVALID_IDEMPOTENCY_KEY", err.Error(), rid, nil)
				return
			}
			dup, err := idem.Claim(r.Context(), key)
			if err != nil {
				writeError(w, r, log, "idempotency_claim", err)
				return
			}
			if dup {
				api.Conflict(w, "DUPLICATE_REQUEST", "a request with this Idempotency-Key was already processed", rid, nil)
				return
			}
			claimed = key
		}

		id, err := svc.CreateComment(r.Context(), discussion.NewComment{
			PostID:   req.PostID,
			AuthorID: userID,
			Content:  req.Content,
			ParentID: req.ParentID,
		})
		if err != nil {
			if claimed != "" {
				if rerr := idem.Release(r.Context(), claimed); rerr != nil {
					log.Warn("idempotency release failed", zap.String("request_id", rid), zap.Error(rerr))
				}
			}
			writeError(w, r, log, "create_comment", err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, createCommentResponse{ID: id})
	}
}

// GetDiscussion handles GET /v1/posts/{post_id}/comments
func GetDiscussion(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		postID, ok := pathID(w, r, "post_id")
		if !ok {
			return
		}
		q := r.URL.Query()
		commentID, ok := queryID(w, rid, q.Get("comment_id"), "comment_id")
		if !ok {
			return
		}
		previousLast, ok := queryID(w, rid, q.Get("previous_last"), "previous_last")
		if !ok {
			return
		}

		page, err := svc.ReadDiscussion(r.Context(), discussion.ReadRequest{
			PostID:       postID,
			CommentID:    commentID,
			PreviousLast: previousLast,
			Viewer:       auth.OptionalUserID(r.Context()),
			WithTally:    wantTally(q.Get("reactions")),
		})
		if err != nil {
			writeError(w, r, log, "read_discussion", err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// GetReplies handles GET /v1/comments/{comment_id}/replies
func GetReplies(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		commentID, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}
		q := r.URL.Query()
		previousLast, ok := queryID(w, rid, q.Get("previous_last"), "previous_last")
		if !ok {
			return
		}

		page, err := svc.ReadReplies(r.Context(), discussion.RepliesRequest{
			CommentID:    commentID,
			PreviousLast: previousLast,
			Viewer:       auth.OptionalUserID(r.Context()),
			WithTally:    wantTally(q.Get("reactions")),
		})
		if err != nil {
			writeError(w, r, log, "read_replies", err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	}
}

// UpdateComment handles PATCH /v1/comments/{comment_id}
func UpdateComment(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}
		var req updateCommentRequest
		if !decode(w, r, &req) {
			return
		}

		if err := svc.UpdateComment(r.Context(), commentID, userID, req.Content); err != nil {
			writeError(w, r, log, "update_comment", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}

		if err := svc.DeleteComment(r.Context(), commentID, userID); err != nil {
			writeError(w, r, log, "delete_comment", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PutReaction handles PUT /v1/comments/{comment_id}/reaction
func PutReaction(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}
		var req reactionRequest
		if !decode(w, r, &req) {
			return
		}
		kind, err := discussion.ParseReaction(req.Reaction)
		if err != nil {
			writeError(w, r, log, "react", err)
			return
		}

		if err := svc.React(r.Context(), commentID, userID, kind); err != nil {
			writeError(w, r, log, "react", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteReaction handles DELETE /v1/comments/{comment_id}/reaction
func DeleteReaction(svc Discussion, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		commentID, ok := pathID(w, r, "comment_id")
		if !ok {
			return
		}

		if err := svc.Unreact(r.Context(), commentID, userID); err != nil {
			writeError(w, r, log, "unreact", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", name+" must be a positive integer", httpserver.RequestIDFromContext(r.Context()), nil)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id; empty yields nil.
func queryID(w http.ResponseWriter, rid, raw, name string) (*int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", name+" must be a positive integer", rid, nil)
		return nil, false
	}
	return &id, true
}

func wantTally(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && b
}
