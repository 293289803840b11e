package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// NewRequestLogger creates a middleware that logs each request after the rest
// of the chain has handled it, so the entry carries the user id the auth
// middleware stamps into the request metadata.
func NewRequestLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("uri", r.RequestURI),
				slog.Duration("duration", time.Since(start)),
			}
			if reqMeta, ok := ReqMetadataFrom(r.Context()); ok {
				attrs = append(attrs,
					slog.String("ip", reqMeta.IP),
					slog.String("userID", reqMeta.UserID),
				)
			}
			logger.Info("HTTP request handled", attrs...)
		})
	}
}
