// Package requesttime pins one "now" per HTTP request so every timestamp a
// placement writes (node, bonus entries, outbox events) agrees.
package requesttime

import (
	"net/http"
	"time"

	"equilibrium/pkg/requestcontext"
)

// Middleware stores the request start time in the context. A time already
// pinned upstream is kept.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requestcontext.Pinned(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
