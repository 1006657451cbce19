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

	conversionsTotal   *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	detectionScore     *prometheus.HistogramVec
	ocrDuration        *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrep",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrep",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docrep",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	conversionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docrep",
			Subsystem: "convert",
			Name:      "conversions_total",
			Help:      "Total markdown-to-JSON conversions by report and outcome.",
		},
		[]string{"service", "report", "status"},
	)
	conversionDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrep",
			Subsystem: "convert",
			Name:      "duration_seconds",
			Help:      "Markdown-to-JSON conversion duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "report"},
	)
	detectionScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrep",
			Subsystem: "convert",
			Name:      "detection_score",
			Help:      "Detection score of the selected converter.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "report"},
	)
	ocrDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docrep",
			Subsystem: "ocr",
			Name:      "duration_seconds",
			Help:      "Document-to-markdown OCR duration in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "device"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		conversionsTotal,
		conversionDuration,
		detectionScore,
		ocrDuration,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		conversionsTotal:   conversionsTotal,
		conversionDuration: conversionDuration,
		detectionScore:     detectionScore,
		ocrDuration:        ocrDuration,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/original/"):
		return "/v1/original/{file_id}"
	default:
		return path
	}
}

// RecordConversion tracks one dispatch call. status is "ok" or the failure
// kind; report is the selected/requested report id or "auto".
func (m *HTTPServerMetrics) RecordConversion(service, report, status string, score float64, duration time.Duration) {
	if report == "" {
		report = "auto"
	}
	if status == "" {
		status = "unknown"
	}
	m.conversionsTotal.WithLabelValues(service, report, status).Inc()
	if status == "ok" {
		m.conversionDuration.WithLabelValues(service, report).Observe(duration.Seconds())
		m.detectionScore.WithLabelValues(service, report).Observe(score)
	}
}

func (m *HTTPServerMetrics) RecordOCR(service, device string, duration time.Duration) {
	if device == "" {
		device = "unknown"
	}
	m.ocrDuration.WithLabelValues(service, device).Observe(duration.Seconds())
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
