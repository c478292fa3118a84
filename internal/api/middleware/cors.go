package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS returns a CORS middleware with the given allowed origins
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}

// DefaultCORS adds the usual local frontend ports when any configured
// origin points at localhost
func DefaultCORS(origins []string) func(http.Handler) http.Handler {
	allowed := append([]string(nil), origins...)
	for _, o := range origins {
		if strings.Contains(o, "localhost") || strings.Contains(o, "127.0.0.1") {
			allowed = append(allowed,
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			)
			break
		}
	}
	return CORS(allowed)
}
