package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the configured dashboard origins. Credentials are only
// enabled for an explicit origin list; browsers reject cookie requests
// against a wildcard, so the unconfigured default stays credential-free.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := len(origins) != 1 || origins[0] != "*"

	handler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		MaxAge:           3600,
		AllowCredentials: allowCredentials,
	})

	return handler.Handler
}
