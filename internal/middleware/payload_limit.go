package middleware

import (
	"net/http"

	"github.com/kleverson/cartas/internal/api"
)

// MaxPayloadBytes is the default request body limit. Post bodies are the
// largest payloads the API accepts.
const MaxPayloadBytes int64 = 2 * 1024 * 1024 // 2 MB

// PayloadLimit rejects bodies larger than maxBytes. Mounted after Decompress
// it also bounds the decompressed size.
func PayloadLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Content-Length may be absent or describe the compressed body
			if r.ContentLength > maxBytes && r.Header.Get("Content-Encoding") == "" {
				api.WriteErrorFromError(w, api.NewPayloadTooLargeError(maxBytes, r.ContentLength))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
