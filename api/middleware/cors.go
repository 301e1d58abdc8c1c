package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware that applies the configured allowed origin policy.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With", SessionHeader, "X-Telegram-Init-Data", "Accept-Language"},
		ExposedHeaders:   []string{SessionHeader, RequestIDHeader, ReplayedHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
