// Package api implements the pocketnotes REST API using chi.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond rps per second with 429. burst allows
// short spikes. Non-positive values fall back to 100 rps and a burst of 10.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 100
	}
	if burst <= 0 {
		burst = 10
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				slog.Warn("rate limit exceeded",
					slog.String("path", r.URL.Path),
					slog.String("remote", r.RemoteAddr))
				writeJSON(w, http.StatusTooManyRequests, errorBody("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows browser clients from origins. Entries are trimmed and
// blanks dropped; "*" allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:         86400,
	})
	return c.Handler
}
