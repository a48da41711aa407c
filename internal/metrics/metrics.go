package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	generationRuns      prometheus.Counter
	generationDuration  prometheus.Histogram
	filesWritten        *prometheus.CounterVec
	recordsRejected     *prometheus.CounterVec
	conflicts           *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP and generation metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iocgen",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by iocgen",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "iocgen",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by iocgen",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	generationRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "iocgen",
		Name:      "generation_runs_total",
		Help:      "Total number of config generation runs",
	})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "iocgen",
		Name:      "generation_run_duration_seconds",
		Help:      "Duration of generation runs from start to finish",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	})

	filesWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iocgen",
		Name:      "files_written_total",
		Help:      "Config files written, per device type",
	}, []string{"device_type"})

	recordsRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iocgen",
		Name:      "records_rejected_total",
		Help:      "Device records dropped by schema validation, per device type",
	}, []string{"device_type"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "iocgen",
		Name:      "controller_conflicts_total",
		Help:      "Controller groups rejected for duplicate slots or disagreeing shared fields",
	}, []string{"device_type"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		generationRuns,
		generationDuration,
		filesWritten,
		recordsRejected,
		conflicts,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		generationRuns:      generationRuns,
		generationDuration:  generationDuration,
		filesWritten:        filesWritten,
		recordsRejected:     recordsRejected,
		conflicts:           conflicts,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// IncGenerationRun increments the generation run counter.
func (m *Metrics) IncGenerationRun() {
	if m == nil {
		return
	}
	m.generationRuns.Inc()
}

// ObserveGenerationDuration observes a generation run duration.
func (m *Metrics) ObserveGenerationDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
}

// IncFileWritten counts one emitted config file.
func (m *Metrics) IncFileWritten(deviceType string) {
	if m == nil {
		return
	}
	m.filesWritten.WithLabelValues(deviceType).Inc()
}

// IncRejected counts one record dropped by validation.
func (m *Metrics) IncRejected(deviceType string) {
	if m == nil {
		return
	}
	m.recordsRejected.WithLabelValues(deviceType).Inc()
}

// IncConflict counts one fatal controller conflict.
func (m *Metrics) IncConflict(deviceType string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(deviceType).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
