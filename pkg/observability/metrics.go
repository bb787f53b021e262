// Package observability exposes Prometheus metrics for the HTTP surface
// and the import pipeline.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pesatrack/pesatrack/pkg/middleware"
)

var (
	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pesatrack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "code"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pesatrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pesatrack_http_active_requests",
			Help: "Number of active HTTP requests",
		},
		[]string{"path"},
	)
)

// Metrics creates a middleware that collects Prometheus metrics per request.
func Metrics() middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// Track active requests
			ActiveRequests.WithLabelValues(path).Inc()
			defer ActiveRequests.WithLabelValues(path).Dec()

			// Track duration
			start := time.Now()
			defer func() {
				RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			}()

			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			RequestsTotal.WithLabelValues(path, strconv.Itoa(rec.status)).Inc()
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
