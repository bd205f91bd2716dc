// Package middleware provides HTTP middleware for the Athena hub.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/athena/internal/logger"
)

const headerRequestID = "X-Request-ID"

// maxIDLen bounds client-supplied identifiers before they reach logs.
const maxIDLen = 128

// RequestID takes X-Request-ID from the request or generates a UUID, stores
// it in the context and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > maxIDLen {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
