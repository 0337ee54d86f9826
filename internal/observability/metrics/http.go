// Package metrics exposes Prometheus registries for the API and worker
// processes. Each process owns its registry so scrape targets stay
// independent.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal  *prometheus.CounterVec
	retrievalHitTotal  *prometheus.CounterVec
	noContextTotal     *prometheus.CounterVec
	retrievedChunks    *prometheus.HistogramVec
	chatDuration       *prometheus.HistogramVec
	sessionClearsTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sa",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total successful chat exchanges.",
		},
		[]string{"service"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sa",
			Subsystem: "chat",
			Name:      "retrieval_hit_total",
			Help:      "Total chat exchanges with at least one retrieved source.",
		},
		[]string{"service"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sa",
			Subsystem: "chat",
			Name:      "no_context_total",
			Help:      "Total chat exchanges answered without retrieved sources.",
		},
		[]string{"service"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sa",
			Subsystem: "chat",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful exchange.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sa",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "End-to-end chat exchange duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	sessionClearsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sa",
			Subsystem: "sessions",
			Name:      "clears_total",
			Help:      "Total explicit session history clears.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		retrievalHitTotal,
		noContextTotal,
		retrievedChunks,
		chatDuration,
		sessionClearsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		chatRequestsTotal:  chatRequestsTotal,
		retrievalHitTotal:  retrievalHitTotal,
		noContextTotal:     noContextTotal,
		retrievedChunks:    retrievedChunks,
		chatDuration:       chatDuration,
		sessionClearsTotal: sessionClearsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses id-bearing paths so label cardinality stays
// bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatExchange(service string, sourceCount int, duration time.Duration) {
	m.chatRequestsTotal.WithLabelValues(service).Inc()
	m.retrievedChunks.WithLabelValues(service).Observe(float64(sourceCount))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.retrievalHitTotal.WithLabelValues(service).Inc()
		return
	}
	m.noContextTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordSessionClear(service string) {
	m.sessionClearsTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
