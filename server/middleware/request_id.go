// Package middleware provides the HTTP middleware wrapped around every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/permitagent/permitagent/errors"
)

// maxRequestIDLen bounds inbound IDs so clients cannot bloat logs.
const maxRequestIDLen = 128

// RequestID middleware tags the request with an ID, reusing the caller's
// X-Request-ID when present, and sets it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(errors.RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.New().String()
		}

		// Set before the handler runs so error writers can read it back.
		w.Header().Set(errors.RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
