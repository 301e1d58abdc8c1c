package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// quietPrefixes are polled by probes and scrapers; they log at debug.
var quietPrefixes = []string{"/health/", "/metrics"}

// Logging writes one access line per request once the handler returns.
// Server errors log at error level and client errors at warn.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logg.From(ctx).WithLevel(accessLevel(r.URL.Path, status)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Int64("duration_ms", time.Since(start).Milliseconds())
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if pattern := rc.RoutePattern(); pattern != "" {
					event = event.Str("route", pattern)
				}
			}
			event.Msg("request.complete")
		})
	}
}

func accessLevel(path string, status int) zerolog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case status >= http.StatusBadRequest:
		return zerolog.WarnLevel
	}
	for _, prefix := range quietPrefixes {
		if strings.HasPrefix(path, prefix) {
			return zerolog.DebugLevel
		}
	}
	return zerolog.InfoLevel
}
