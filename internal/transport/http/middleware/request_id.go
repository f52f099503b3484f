package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"pms/internal/requestctx"
)

// RequestID honors an inbound X-Request-ID, minting one otherwise, and
// echoes it on the response so clients can correlate log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
