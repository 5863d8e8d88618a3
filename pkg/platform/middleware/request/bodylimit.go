package request

import (
	"fmt"
	"net/http"
)

// BodyLimit caps record and credential payloads at maxBytes. A declared
// Content-Length over the cap is refused before the handler runs; a body that
// grows past it mid-read fails the decode with *http.MaxBytesError.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	tooLarge := fmt.Appendf(nil, `{"error":"payload_too_large","error_description":"request body exceeds %d bytes"}`, maxBytes)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write(tooLarge) //nolint:errcheck // headers already sent
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
