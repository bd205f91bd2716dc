package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/athena/internal/logger"
)

// HeaderViewerID identifies the dashboard session that issued a request.
const HeaderViewerID = "X-Viewer-ID"

// ViewerID attaches a viewer identifier to the context. Each browser tab is a
// viewer; a request without the header is treated as a new anonymous viewer.
func ViewerID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderViewerID)
		if id == "" || len(id) > maxIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderViewerID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithViewerID(r.Context(), id)))
	})
}
