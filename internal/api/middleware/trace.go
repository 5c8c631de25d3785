// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/handset/internal/api/shared"
	"github.com/phrazzld/handset/internal/platform/logger"
)

// NewTraceMiddleware adds a trace ID to each request and stores a logger
// carrying it in the request context, so handlers can use
// logger.FromContext.
// It should be mounted early in the chain so every later handler, import
// job logs included, sees the same trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	// Fall back to the process logger when none is wired
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Add a trace ID to the context
			ctx := shared.SetTraceID(r.Context())

			// Derive the request logger from it
			log := base.With(slog.String("trace_id", shared.GetTraceID(ctx)))
			ctx = logger.WithLogger(ctx, log)

			// Log the incoming request with its trace ID
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			// Continue with the enriched context
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
