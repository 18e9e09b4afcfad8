// Package metrics exposes Prometheus collectors for the analyzer service.
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
	// AnalysesTotal counts finished analysis jobs by terminal status.
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copylens_analyses_total",
		Help: "Total number of analysis jobs by terminal status.",
	}, []string{"status"})

	// AnalysisDuration observes end-to-end job time, fetch through persist.
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "copylens_analysis_duration_seconds",
		Help:    "End-to-end analysis duration in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	// FetchErrorsTotal counts page fetches that failed.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copylens_fetch_errors_total",
		Help: "Total number of failed page fetches.",
	})

	// RewriteErrorsTotal counts generative rewrite calls that failed.
	RewriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copylens_rewrite_errors_total",
		Help: "Total number of failed generative rewrite calls.",
	})

	// ModelAvailable reports whether the NLP sidecar answered its health check.
	ModelAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copylens_nlp_model_available",
		Help: "1 when the NLP model service is reachable, 0 otherwise.",
	})

	// QueueDepth tracks analysis jobs waiting for a worker.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "copylens_queue_depth",
		Help: "Number of analysis jobs waiting in the queue.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "copylens_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// statusRecorder captures the response status code for instrumentation.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// InstrumentHandler records request durations labelled by method, route
// pattern and status code. The pattern is passed in rather than derived from
// the URL so ids and slugs don't explode label cardinality.
func InstrumentHandler(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}
