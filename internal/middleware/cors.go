// Package middleware provides reusable HTTP middleware for the map daemon.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge lets the UI cache preflight answers for ten minutes; the map
// screen issues many small viewport calls.
const corsMaxAge = 600

// NewCORSHandler returns a middleware that applies CORS headers based on allowedOrigins.
// Each entry must be a full origin (scheme + host, no trailing slash).
// Idempotency-Key is allowed so the UI can retry trip creation, and
// Content-Disposition is exposed so it can name CSV exports.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
