package lessonserver

import (
	"net/http"

	"github.com/go-chi/cors"
)

var corsOptions = cors.Options{
	AllowedOrigins:   []string{"*"},
	AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPost, http.MethodPut},
	AllowedHeaders:   []string{"Access-Control-Allow-Headers", "Origin", "Accept", "X-Requested-With", "Content-Type", "Access-Control-Request-Method", "Access-Control-Request-Headers", "Idempotency-Key"},
	AllowCredentials: true,
	MaxAge:           300,
}

// WithCORS wraps the API so browsers on any origin can call it.
func WithCORS(h http.Handler) http.Handler {
	return cors.Handler(corsOptions)(h)
}
