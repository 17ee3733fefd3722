package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/roomlog/internal/observability"
)

// unmatchedRoute labels requests no route matched, keeping the metric
// label set bounded.
const unmatchedRoute = "unmatched"

func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := unmatchedRoute
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			dur := time.Since(start)

			observability.HTTPRequests().WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			observability.HTTPLatency().WithLabelValues(r.Method, route).Observe(dur.Seconds())

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Str("from", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Dur("dur", dur).
				Msg("request")
		})
	}
}
