package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/api"
	"github.com/example/book-social/internal/platform/auth"
	"github.com/example/book-social/internal/platform/httpserver"
	"github.com/example/book-social/services/discussion/internal/discussion"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeValidation reports struct validation failures field by field.
func writeValidation(w http.ResponseWriter, rid string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		api.BadRequest(w, "INVALID_REQUEST", err.Error(), rid, nil)
		return
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	api.BadRequest(w, "VALIDATION_FAILED", "request failed validation", rid, details)
}

// writeError maps discussion errors onto the API envelope. Anything outside
// the taxonomy is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, op string, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())

	var de *discussion.Error
	errors.As(err, &de)

	switch discussion.KindOf(err) {
	case discussion.KindNotFound:
		var details map[string]any
		if de != nil {
			details = map[string]any{"id": de.ID}
		}
		api.NotFound(w, "COMMENT_NOT_FOUND", err.Error(), rid, details)
	case discussion.KindUnauthorized:
		api.Forbidden(w, "NOT_AUTHOR", "comment not found or not the author", rid)
	case discussion.KindValidation:
		var details map[string]any
		if de != nil && de.Field != "" {
			details = map[string]any{de.Field: de.Msg}
		}
		api.BadRequest(w, "VALIDATION_FAILED", err.Error(), rid, details)
	default:
		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		}
		if uid, ok := auth.UserIDFromContext(r.Context()); ok {
			fields = append(fields, zap.Int64("user_id", uid))
		}
		log.Error("discussion request failed", fields...)
		api.Internal(w, rid)
	}
}
