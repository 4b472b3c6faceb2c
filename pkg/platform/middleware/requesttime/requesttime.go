// Package requesttime stamps each request with a single "now" and copies the
// chi request ID into requestcontext, so handlers and services read both from
// one place.
package requesttime

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"countrycatalog/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
// It must run after chi's RequestID middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			ctx = requestcontext.WithRequestID(ctx, reqID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
