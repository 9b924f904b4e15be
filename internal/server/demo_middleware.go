package server

import (
	"net/http"
	"strings"
)

// DemoMiddleware enforces read-only access for demo installs. Only GET,
// HEAD, and OPTIONS requests pass through, plus writes under the allowed
// prefixes (the auth endpoints, so demo visitors can still sign in).
func DemoMiddleware(allowPrefixes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range allowPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			Forbidden(w, "demo mode: read-only access", r.URL.Path)
		})
	}
}
