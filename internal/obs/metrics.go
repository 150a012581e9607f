package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Listing cache hits per resource type.",
		},
		[]string{"resource"},
	)

	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Listing cache misses per resource type.",
		},
		[]string{"resource"},
	)

	cacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Listing cache invalidations per resource type.",
		},
		[]string{"resource"},
	)
)

// Init registers the shared metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		cacheHits,
		cacheMisses,
		cacheInvalidations,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// CacheHit records a listing-cache hit for the given resource type.
func CacheHit(resource string) { cacheHits.WithLabelValues(resource).Inc() }

// CacheMiss records a listing-cache miss for the given resource type.
func CacheMiss(resource string) { cacheMisses.WithLabelValues(resource).Inc() }

// CacheInvalidation records a listing-cache invalidation for the given resource type.
func CacheInvalidation(resource string) { cacheInvalidations.WithLabelValues(resource).Inc() }

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded. /goals/<id> becomes /goals/:id, /goals/edit/<id> becomes
// /goals/edit/:id, and so on for notes and transactions.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(path, "/")
	if len(parts) < 3 || parts[0] != "" {
		return path
	}
	switch parts[1] {
	case "goals", "notes", "transactions":
	default:
		return path
	}
	switch len(parts) {
	case 3:
		if parts[2] != "all" && parts[2] != "new" && parts[2] != "" {
			parts[2] = ":id"
		}
	case 4:
		switch parts[2] {
		case "edit", "delete", "complete":
			parts[3] = ":id"
		default:
			return path
		}
	default:
		return path
	}
	return strings.Join(parts, "/")
}

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
