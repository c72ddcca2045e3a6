package api

import (
	"net/http"

	"github.com/tstfie/forms-api/webutil"
)

// maxPayloadBytes bounds form submissions. Anything larger than this is
// not a legitimate contact message or signup.
const maxPayloadBytes = 10_000

// AllowOrigin rejects requests whose Origin header does not exactly match
// the single configured origin. No wildcard, no multi-origin list: the
// API serves one site.
func AllowOrigin(allowed string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(webutil.HeaderOrigin) != allowed {
				webutil.RespondWithError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LimitPayload rejects oversized declared lengths up front and wraps the
// body in a MaxBytesReader so the limit holds even when Content-Length
// lies or is absent.
func LimitPayload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > maxPayloadBytes {
			webutil.RespondWithError(w, http.StatusRequestEntityTooLarge, "Payload too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
		next.ServeHTTP(w, r)
	})
}
