package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/book-social/services/discussion/internal/discussion"
)

// Discussion is the engine surface served over gRPC.
type Discussion interface {
	CreateComment(ctx context.Context, in discussion.NewComment) (int64, error)
	UpdateComment(ctx context.Context, id, authorID int64, content string) error
	DeleteComment(ctx context.Context, id, authorID int64) error
	ReadDiscussion(ctx context.Context, req discussion.ReadRequest) (discussion.Page, error)
	ReadReplies(ctx context.Context, req discussion.RepliesRequest) (discussion.Page, error)
	React(ctx context.Context, commentID, userID int64, kind discussion.Reaction) error
	Unreact(ctx context.Context, commentID, userID int64) error
}

// Server implements DiscussionServer on top of the discussion engine.
// The caller identity arrives in the "user_id" metadata key, set by the
// edge after it verified the credential.
type Server struct {
	Svc Discussion
	Log *zap.Logger
}

var _ DiscussionServer = (*Server)(nil)

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) fail(op string, err error) error {
	if discussion.KindOf(err) == 0 {
		s.log().Error("discussion rpc failed", zap.String("op", op), zap.Error(err))
	}
	return toStatus(err)
}

// userIDFromMD returns the caller, or nil for anonymous calls.
func userIDFromMD(ctx context.Context) (*int64, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, nil
	}
	vals := md.Get("user_id")
	if len(vals) == 0 || strings.TrimSpace(vals[0]) == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(vals[0]), 10, 64)
	if err != nil || id <= 0 {
		return nil, errUnauthenticated("user_id must be a positive integer")
	}
	return &id, nil
}

func requireUser(ctx context.Context) (int64, error) {
	uid, err := userIDFromMD(ctx)
	if err != nil {
		return 0, err
	}
	if uid == nil {
		return 0, errUnauthenticated("missing user_id in metadata")
	}
	return *uid, nil
}

// intField reads an optional integral number. Struct numbers are doubles.
func intField(in *structpb.Struct, name string) (*int64, error) {
	v, ok := in.GetFields()[name]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return nil, errInvalidArgument("VALIDATION_FAILED", fmt.Sprintf("invalid %s", name), map[string]string{name: "must be an integer"})
	}
	id := int64(n.NumberValue)
	return &id, nil
}

func requiredInt(in *structpb.Struct, name string) (int64, error) {
	v, err := intField(in, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, errInvalidArgument("VALIDATION_FAILED", name+" is required", map[string]string{name: "required"})
	}
	return *v, nil
}

func stringField(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func boolField(in *structpb.Struct, name string) bool {
	return in.GetFields()[name].GetBoolValue()
}

// toStruct re-encodes v through its JSON form so both transports return
// the same shape.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func empty() *structpb.Struct { return &structpb.Struct{Fields: map[string]*structpb.Value{}} }

func (s *Server) CreateComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	postID, err := intField(in, "post_id")
	if err != nil {
		return nil, err
	}
	parentID, err := intField(in, "parent_id")
	if err != nil {
		return nil, err
	}
	nc := discussion.NewComment{AuthorID: userID, Content: stringField(in, "content"), ParentID: parentID}
	if postID != nil {
		nc.PostID = *postID
	}

	id, err := s.Svc.CreateComment(ctx, nc)
	if err != nil {
		return nil, s.fail("create_comment", err)
	}
	return structpb.NewStruct(map[string]any{"id": id})
}

func (s *Server) ReadDiscussion(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	viewer, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	postID, err := requiredInt(in, "post_id")
	if err != nil {
		return nil, err
	}
	commentID, err := intField(in, "comment_id")
	if err != nil {
		return nil, err
	}
	previousLast, err := intField(in, "previous_last")
	if err != nil {
		return nil, err
	}

	page, err := s.Svc.ReadDiscussion(ctx, discussion.ReadRequest{
		PostID:       postID,
		CommentID:    commentID,
		PreviousLast: previousLast,
		Viewer:       viewer,
		WithTally:    boolField(in, "reactions"),
	})
	if err != nil {
		return nil, s.fail("read_discussion", err)
	}
	return toStruct(page)
}

func (s *Server) ReadReplies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	viewer, err := userIDFromMD(ctx)
	if err != nil {
		return nil, err
	}
	commentID, err := requiredInt(in, "comment_id")
	if err != nil {
		return nil, err
	}
	previousLast, err := intField(in, "previous_last")
	if err != nil {
		return nil, err
	}

	page, err := s.Svc.ReadReplies(ctx, discussion.RepliesRequest{
		CommentID:    commentID,
		PreviousLast: previousLast,
		Viewer:       viewer,
		WithTally:    boolField(in, "reactions"),
	})
	if err != nil {
		return nil, s.fail("read_replies", err)
	}
	return toStruct(page)
}

func (s *Server) UpdateComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredInt(in, "comment_id")
	if err != nil {
		return nil, err
	}
	if err := s.Svc.UpdateComment(ctx, id, userID, stringField(in, "content")); err != nil {
		return nil, s.fail("update_comment", err)
	}
	return empty(), nil
}

func (s *Server) DeleteComment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredInt(in, "comment_id")
	if err != nil {
		return nil, err
	}
	if err := s.Svc.DeleteComment(ctx, id, userID); err != nil {
		return nil, s.fail("delete_comment", err)
	}
	return empty(), nil
}

func (s *Server) React(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredInt(in, "comment_id")
	if err != nil {
		return nil, err
	}
	kind, err := discussion.ParseReaction(stringField(in, "reaction"))
	if err != nil {
		return nil, s.fail("react", err)
	}
	if err := s.Svc.React(ctx, id, userID, kind); err != nil {
		return nil, s.fail("react", err)
	}
	return empty(), nil
}

func (s *Server) Unreact(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredInt(in, "comment_id")
	if err != nil {
		return nil, err
	}
	if err := s.Svc.Unreact(ctx, id, userID); err != nil {
		return nil, s.fail("unreact", err)
	}
	return empty(), nil
}
