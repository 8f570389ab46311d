package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// Origins splits a comma separated origin list. An empty list means the local
// front-end.
func Origins(allowedOrigins string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// OriginAllowed reports whether a request comes from one of the configured
// origins. Requests without an Origin header are not browser requests and
// pass.
func OriginAllowed(allowedOrigins string) func(r *http.Request) bool {
	origins := Origins(allowedOrigins)
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// CORS allows the configured front-end origins to call the API with the
// session cookie.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   Origins(allowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TraceHeader},
		ExposedHeaders:   []string{TraceHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
