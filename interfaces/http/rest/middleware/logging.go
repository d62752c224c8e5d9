package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger logs one line per request, keyed by route pattern and the node it
// touched. Server errors log at error level, client errors at warn, and
// probes of /health and /ready at debug.
func Logger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			}
			if nodeID := chi.URLParam(r, "nodeID"); nodeID != "" {
				fields = append(fields, zap.String("nodeID", nodeID))
			}
			if route == "unmatched" {
				fields = append(fields, zap.String("path", r.URL.Path))
			}

			if ce := logger.Check(requestLevel(route, status), "HTTP request"); ce != nil {
				ce.Write(fields...)
			}
		})
	}
}

func requestLevel(route string, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	case route == "/health" || route == "/ready":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// routePattern returns the matched chi pattern, so /nodes/1 and /nodes/2
// share a name.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
