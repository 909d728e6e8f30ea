package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kinfolkhq/kinfolk/pkg/idx"
)

// HTTPMiddleware emits one access log line per request and seeds the
// request context with a logger carrying the request ID, so everything
// logged further down can be correlated back to the request.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			logger := base.With(
				"req_id", requestID(r),
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(WithContext(r.Context(), logger)))

			logger.Info("http_request",
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// requestID honors an upstream X-Request-ID when a proxy minted one and
// otherwise assigns a fresh ULID.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return idx.New().String()
}

// statusRecorder captures the status code written by the handler. Handlers
// that never call WriteHeader implicitly write 200.
type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
