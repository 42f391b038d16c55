package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"

	"github.com/greenbasket/greenbasket-backend/pkg/config"
)

// CORS returns middleware that allows the configured storefront origin plus
// local development hosts.
func CORS(cfg config.FrontendConfig) func(http.Handler) http.Handler {
	origins := []string{"http://localhost:3000"}
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		origins = append(origins, base)
	}

	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
