package http

import (
	"net/http"
	"time"

	appmetrics "github.com/dejobratic/catalog/internal/metrics"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// WithMetrics feeds both the OTel instruments and the local registry.
// Rate-limited rejections are counted where they are issued, so 429 is
// recorded here only as part of the request total.
func WithMetrics(next http.Handler, metrics *Metrics, registry *appmetrics.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		registry.RecordRequest()
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		metrics.RecordRequest(r.Context(), r.Method, r.URL.Path, rw.statusCode, duration)

		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			registry.RecordFailure()
		case rw.statusCode == http.StatusTooManyRequests:
		default:
			registry.RecordSuccess(duration)
		}
	})
}
