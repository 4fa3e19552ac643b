package grpcapi

import (
	"errors"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/example/book-social/services/discussion/internal/discussion"
)

const errorDomain = "discussion"

func withDetails(st *status.Status, details ...*errdetails.ErrorInfo) error {
	for _, d := range details {
		st2, err := st.WithDetails(d)
		if err != nil {
			return st.Err()
		}
		st = st2
	}
	return st.Err()
}

func errInvalidArgument(code, msg string, fieldViolations map[string]string) error {
	st := status.New(codes.InvalidArgument, msg)
	info := &errdetails.ErrorInfo{Reason: code, Domain: errorDomain}

	bad := &errdetails.BadRequest{}
	for field, desc := range fieldViolations {
		bad.FieldViolations = append(bad.FieldViolations, &errdetails.BadRequest_FieldViolation{Field: field, Description: desc})
	}

	st2, err := st.WithDetails(info, bad)
	if err != nil {
		return st.Err()
	}
	return st2.Err()
}

func errUnauthenticated(msg string) error {
	return withDetails(status.New(codes.Unauthenticated, msg), &errdetails.ErrorInfo{Reason: "UNAUTHORIZED", Domain: errorDomain})
}

func errInternal() error {
	return withDetails(status.New(codes.Internal, "internal error"), &errdetails.ErrorInfo{Reason: "INTERNAL", Domain: errorDomain})
}

// toStatus maps a discussion error onto a gRPC status. Storage failures
// become a bare Internal.
func toStatus(err error) error {
	var de *discussion.Error
	errors.As(err, &de)
	switch discussion.KindOf(err) {
	case discussion.KindNotFound:
		info := &errdetails.ErrorInfo{Reason: "COMMENT_NOT_FOUND", Domain: errorDomain}
		if de != nil {
			info.Metadata = map[string]string{"id": strconv.FormatInt(de.ID, 10)}
		}
		return withDetails(status.New(codes.NotFound, err.Error()), info)
	case discussion.KindUnauthorized:
		return withDetails(status.New(codes.PermissionDenied, err.Error()),
			&errdetails.ErrorInfo{Reason: "NOT_AUTHOR", Domain: errorDomain})
	case discussion.KindValidation:
		var fields map[string]string
		if de != nil && de.Field != "" {
			fields = map[string]string{de.Field: de.Msg}
		}
		return errInvalidArgument("VALIDATION_FAILED", err.Error(), fields)
	}
	return errInternal()
}
