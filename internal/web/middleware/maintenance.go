package middleware

import "net/http"

// Maintenance serves page on "/" and redirects every other path to "/",
// except the health check. It is a no-op when enabled is false.
func Maintenance(enabled bool, page http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/health":
				next.ServeHTTP(w, r)
			case "/":
				page.ServeHTTP(w, r)
			default:
				http.Redirect(w, r, "/", http.StatusSeeOther)
			}
		})
	}
}
