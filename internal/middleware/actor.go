package middleware

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader carries the authenticated user id, set by the gateway in front
// of the API.
const ActorHeader = "X-User-ID"

type actorKey struct{}

// NewActorHandler copies the actor header into the request context. Requests
// without it pass through; handlers that need an actor reject them.
func NewActorHandler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := strings.TrimSpace(r.Header.Get(ActorHeader)); id != "" {
				r = r.WithContext(WithActor(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor returns a copy of ctx carrying userID.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by NewActorHandler.
func ActorFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
