package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type reqIDKey struct{}

// NewReqID creates a middleware that assigns every request a UUID, usable
// for correlating log lines across a single request's handler chain. The
// id is echoed back on the X-Request-Id response header.
func NewReqID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := uuid.NewString()

			w.Header().Set("X-Request-Id", id)

			ctx := context.WithValue(r.Context(), reqIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ReqID returns the request id assigned by NewReqID, or "" if none was set.
func ReqID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}

// Use wraps h with every middleware in mws, applied in the order given so
// the first middleware listed is outermost.
func Use(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var wrapped http.Handler = h

	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}

	return wrapped
}
