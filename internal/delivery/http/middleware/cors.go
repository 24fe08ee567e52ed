package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// The admin API only serves GET (run status, health, metrics) and POST
// (token, trigger run).
var corsMethods = []string{http.MethodGet, http.MethodPost}

const (
	corsAllowHeaders  = "Authorization, Content-Type"
	corsExposeHeaders = RequestIDHeader
	corsMaxAge        = "600"
)

// CORS lets an operator dashboard served from one of allowedOrigins read run
// status and trigger runs. Tokens travel in the Authorization header, so
// credentials are never allowed. Preflights from unknown origins or for
// other methods get 403.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSuffix(strings.TrimSpace(o), "/"); o != "" {
			origins[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !origins[origin] || !slices.Contains(corsMethods, r.Header.Get("Access-Control-Request-Method")) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
			w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if origins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}
		next.ServeHTTP(w, r)
	})
}
