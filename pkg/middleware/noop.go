package middleware

import "net/http"

// NoopHeader is set on every response that passed through Noop.
const NoopHeader = "X-Astro-Noop"

// Noop is the middleware a site gets when it defines none of its own.
func Noop(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(NoopHeader, "true")
		next.ServeHTTP(w, r)
	})
}
