package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/book-social/internal/platform/api"
	"github.com/example/book-social/internal/platform/httpserver"
)

// DefaultCookieName is the cookie consulted when no Authorization header is sent.
const DefaultCookieName = "access_token"

var (
	ErrNoCredentials = errors.New("no credentials")
	ErrBadScheme     = errors.New("authorization scheme must be Bearer")
)

type ctxKeyUserID struct{}

// UserIDFromContext returns the authenticated user, if the request has one.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(int64)
	return v, ok
}

// OptionalUserID returns the authenticated user as a pointer, nil for
// anonymous requests.
func OptionalUserID(ctx context.Context) *int64 {
	if id, ok := UserIDFromContext(ctx); ok {
		return &id
	}
	return nil
}

// WithUserID injects user_id into context. Useful for testing.
func WithUserID(ctx context.Context, uid int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID{}, uid)
}

type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject as a positive numeric user id.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Subject), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("subject is not a user id")
	}
	return id, nil
}

type JWTVerifier struct {
	Secret []byte
}

func (v JWTVerifier) Parse(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return v.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Token returns the raw credential: the Bearer token when an Authorization
// header is present, otherwise the named cookie.
func Token(r *http.Request, cookieName string) (string, error) {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
			return "", ErrBadScheme
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value), nil
	}
	return "", ErrNoCredentials
}

// Identify resolves the optional caller identity. Requests without any
// credential pass through anonymously; a credential that fails verification
// is rejected with 401.
func Identify(verifier JWTVerifier, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := Token(r, cookieName)
			if errors.Is(err, ErrNoCredentials) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", err.Error(), httpserver.RequestIDFromContext(r.Context()))
				return
			}
			claims, err := verifier.Parse(raw)
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", "invalid or expired token", httpserver.RequestIDFromContext(r.Context()))
				return
			}
			uid, err := claims.UserID()
			if err != nil {
				api.Unauthorized(w, "UNAUTHORIZED", err.Error(), httpserver.RequestIDFromContext(r.Context()))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

// RequireUser fails with 401 unless Identify already attached a user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			api.Unauthorized(w, "UNAUTHORIZED", "authentication required", httpserver.RequestIDFromContext(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
