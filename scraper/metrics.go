package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for one scraper instance.
type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	RecordsTotal    *prometheus.CounterVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	WarningsTotal   *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued, labelled by run phase.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_records_total",
			Help: "Extracted records accepted into the run, by kind.",
		},
		[]string{"kind"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts issued.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	warnings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_warnings_total",
			Help: "Data-shape warnings queued by validators, by type.",
		},
		[]string{"warning_type"},
	)

	registry.MustRegister(requests, requestDuration, records, retries, errorsTotal, warnings)

	return &Metrics{
		Registry:        registry,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
		RecordsTotal:    records,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		WarningsTotal:   warnings,
	}
}

// IncRequest increments the requests total counter for a phase.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRecords adds accepted records of one kind.
func (m *Metrics) IncRecords(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsTotal.WithLabelValues(kind).Add(float64(n))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncWarning increments the warnings counter for a type label.
func (m *Metrics) IncWarning(warningType string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(warningType).Inc()
}
