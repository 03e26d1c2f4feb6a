package middleware

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultRequestTimeout bounds ordinary API requests
	DefaultRequestTimeout = 5 * time.Second

	// BackupRequestTimeout bounds backup generation, which reads every row
	// and may upload the archive
	BackupRequestTimeout = 2 * time.Minute
)

// ContextTimeout adds a deadline to the request context. Handlers observe it
// through ctx.Err(); the ResponseWriter is left untouched so websocket
// upgrades keep working.
func ContextTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
