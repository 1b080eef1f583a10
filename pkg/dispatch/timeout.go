package dispatch

import (
	"context"
	"net/http"
	"time"
)

// withTimeout bounds the request context handed to invokers. Handlers are
// expected to honour ctx; the dispatcher does not abandon a running call.
func withTimeout(next http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
