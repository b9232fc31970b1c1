// Package metrics exposes Prometheus collectors for ingestion runs and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Total number of ingestion runs by outcome",
		},
		[]string{"outcome"},
	)

	ingestRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Ingestion run duration in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	postingsInsertedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_postings_inserted_total",
			Help: "Total number of postings inserted",
		},
	)

	threadsCheckedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_threads_checked_total",
			Help: "Total number of threads checked",
		},
	)

	itemFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_item_fetches_total",
			Help: "Total number of item fetches by outcome",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

// ObserveRun records one finished ingestion run.
func ObserveRun(newPosts, threadsChecked int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ingestRunsTotal.WithLabelValues(outcome).Inc()
	ingestRunDuration.Observe(d.Seconds())
	postingsInsertedTotal.Add(float64(newPosts))
	threadsCheckedTotal.Add(float64(threadsChecked))
}

// ObserveItems records the item fetches of one thread.
func ObserveItems(fetched, omitted int) {
	itemFetchesTotal.WithLabelValues("ok").Add(float64(fetched))
	itemFetchesTotal.WithLabelValues("omitted").Add(float64(omitted))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Middleware records request count and latency. route maps a request to a
// low-cardinality label; the raw path is used when it returns "".
func Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := ""
			if route != nil {
				path = route(r)
			}
			if path == "" {
				path = r.URL.Path
			}
			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
