// Package telemetry exposes the service's Prometheus metrics and the HTTP
// middleware that feeds the request-level ones. Metrics are served by the
// /metrics endpoint wired in internal/app.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts finished HTTP requests by route, method, status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contextdb_http_requests_total",
		Help: "Finished HTTP requests.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "contextdb_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	// Exchanges counts completed query/answer exchanges.
	Exchanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contextdb_exchanges_total",
		Help: "Completed query/answer exchanges.",
	})

	// ResponderFailures counts exchanges that fell back to the degraded
	// answer because the responder errored.
	ResponderFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contextdb_responder_failures_total",
		Help: "Responder errors converted to fallback answers.",
	})

	// Regenerations counts context summary regenerations by origin
	// (trigger, manual, sweep).
	Regenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contextdb_context_regenerations_total",
		Help: "Context summary regenerations.",
	}, []string{"origin"})

	// StorageErrors counts storage-layer failures surfaced to callers.
	StorageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contextdb_storage_errors_total",
		Help: "Storage-layer failures.",
	})
)

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency for every request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		route := r.URL.Path
		HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Inc()
		HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
