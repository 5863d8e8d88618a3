// Package requesttime pins one "now" per HTTP request so every timestamp the
// engine writes for that request (created_at, issuance dates, audit events)
// agrees.
package requesttime

import (
	"net/http"
	"time"

	"vaultledger/pkg/requestcontext"
)

// Middleware captures the request start time into the context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injectable clock.
func MiddlewareWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
