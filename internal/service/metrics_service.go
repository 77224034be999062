package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	enrollResults   *prometheus.CounterVec
	seatConflicts   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	enrollResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_requests_total",
		Help: "Enrollment attempts by outcome reason code",
	}, []string{"outcome"})

	seatConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "enrollment_seat_conflicts_total",
		Help: "Enrollments rejected by the commit-time seat guard",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		enrollResults,
		seatConflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		enrollResults:   enrollResults,
		seatConflicts:   seatConflicts,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveRequest records one handled HTTP request.
func (s *MetricsService) ObserveRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	s.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveEnrollment records the outcome of one enrollment attempt.
func (s *MetricsService) ObserveEnrollment(outcome string) {
	s.enrollResults.WithLabelValues(outcome).Inc()
}

// ObserveSeatConflict records an enrollment lost to the commit-time seat
// guard after passing the eligibility pre-check.
func (s *MetricsService) ObserveSeatConflict() {
	s.seatConflicts.Inc()
}
