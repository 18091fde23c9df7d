package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// CORSMiddleware creates a CORS middleware. Allowed origins come from the
// CORS_ALLOWED_ORIGINS env variable (comma separated); unset means any
// origin is allowed.
func CORSMiddleware() func(http.Handler) http.Handler {
	allowed := parseAllowedOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))
	maxAge := getCORSMaxAge()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := resolveAllowedOrigin(allowed, r.Header.Get("Origin"))
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", maxAge)
			}

			// Handle preflight (OPTIONS) requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware() func(http.Handler) http.Handler {
	return CORSMiddleware()
}

// parseAllowedOrigins splits a comma-separated origin list. An empty
// result means all origins.
func parseAllowedOrigins(value string) []string {
	if value == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(value, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// resolveAllowedOrigin returns the Allow-Origin header value for a request
// origin, or "" when the origin is not allowed
func resolveAllowedOrigin(allowed []string, requestOrigin string) string {
	if len(allowed) == 0 {
		return "*"
	}
	for _, origin := range allowed {
		if origin == requestOrigin {
			return origin
		}
	}
	return ""
}

// getCORSMaxAge gets the CORS max age from environment variable or returns default
func getCORSMaxAge() string {
	if value := os.Getenv("CORS_MAX_AGE"); value != "" {
		// Validate that it's a valid number
		if _, err := strconv.Atoi(value); err == nil {
			return value
		}
	}
	return "86400" // Default: 24 hours
}
