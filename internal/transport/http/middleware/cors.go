package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets the browser form post records and download documents.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID", "Idempotent-Replayed"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
