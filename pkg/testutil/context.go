package testutil

import (
	"net/http"

	"countrycatalog/pkg/requestcontext"
)

// WithRequestID sets the request ID normally copied from chi's RequestID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
