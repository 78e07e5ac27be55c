package middle

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mstgnz/carepay/infra/logger"
)

// responseWriter captures the status code written by the handler
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// RequestLoggingMiddleware writes one structured access log line per request
func RequestLoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			fields := map[string]any{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rw.statusCode,
				"bytes":       rw.written,
				"duration_ms": time.Since(start).Milliseconds(),
				"client_ip":   GetClientIP(r),
			}
			if claims := GetClaims(r.Context()); claims != nil {
				fields["user_id"] = claims.UserID
			}

			logCtx := logger.LogContext{
				RequestID: middleware.GetReqID(r.Context()),
				Fields:    fields,
			}
			msg := fmt.Sprintf("%s %s %d", r.Method, r.URL.Path, rw.statusCode)

			switch {
			case rw.statusCode >= 500:
				logger.Error(msg, nil, logCtx)
			case rw.statusCode >= 400:
				logger.Warn(msg, logCtx)
			default:
				logger.Info(msg, logCtx)
			}
		})
	}
}
