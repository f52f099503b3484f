package middleware

import (
	"log/slog"
	"net/http"

	"pms/internal/requestctx"
	"pms/internal/transport/http/api"
)

func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "panic", rec, "path", r.URL.Path,
					"requestId", requestctx.GetRequestID(r.Context()))
				api.Fail(w, http.StatusInternalServerError, "internal_error", "something went wrong", requestctx.GetRequestID(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
