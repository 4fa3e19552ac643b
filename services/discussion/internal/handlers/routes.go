package handlers

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/book-social/internal/platform/auth"
	"github.com/example/book-social/services/discussion/internal/idempotency"
)

// Deps are the collaborators of the discussion routes.
type Deps struct {
	Service     Discussion
	Idempotency idempotency.Store
	Verifier    auth.JWTVerifier
	CookieName  string
	Logger      *zap.Logger
}

// Mount registers the discussion API on r. Reads accept anonymous callers;
// writes require an authenticated user.
func Mount(r chi.Router, d Deps) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r.Group(func(r chi.Router) {
		r.Use(auth.Identify(d.Verifier, d.CookieName))

		r.Get("/v1/posts/{post_id}/comments", GetDiscussion(d.Service, log))
		r.Get("/v1/comments/{comment_id}/replies", GetReplies(d.Service, log))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/v1/comments", CreateComment(d.Service, d.Idempotency, log))
			r.Patch("/v1/comments/{comment_id}", UpdateComment(d.Service, log))
			r.Delete("/v1/comments/{comment_id}", DeleteComment(d.Service, log))
			r.Put("/v1/comments/{comment_id}/reaction", PutReaction(d.Service, log))
			r.Delete("/v1/comments/{comment_id}/reaction", DeleteReaction(d.Service, log))
		})
	})
}
