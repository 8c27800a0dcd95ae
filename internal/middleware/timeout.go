package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request with a context deadline so hung upstream calls
// (chain RPC, model API) fail with context.DeadlineExceeded and surface
// through the error taxonomy as retryable upstream errors instead of holding
// the connection open.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
