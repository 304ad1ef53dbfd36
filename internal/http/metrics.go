package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the transport's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	retries   prometheus.Counter
	inFlight  prometheus.Gauge
	queueWait prometheus.Histogram
}

// NewMetrics creates the transport collectors and registers them on reg.
// Collectors already registered by another client are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cma_http_requests_total",
			Help: "Completed API calls by method and final status code.",
		}, []string{"method", "code"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cma_http_retries_total",
			Help: "Retries issued after HTTP 429 responses.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cma_http_in_flight",
			Help: "Requests currently holding an admission slot.",
		}),
		queueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cma_http_queue_wait_seconds",
			Help:    "Time spent waiting for an admission slot.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	if reg == nil {
		return metrics
	}

	metrics.requests = register(reg, metrics.requests)
	metrics.retries = register(reg, metrics.retries)
	metrics.inFlight = register(reg, metrics.inFlight)
	metrics.queueWait = register(reg, metrics.queueWait)

	return metrics
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	err := reg.Register(collector)
	if err == nil {
		return collector
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}

	return collector
}

func (m *Metrics) observeAdmission(wait time.Duration) {
	if m == nil {
		return
	}

	m.inFlight.Inc()
	m.queueWait.Observe(wait.Seconds())
}

func (m *Metrics) observeRelease() {
	if m == nil {
		return
	}

	m.inFlight.Dec()
}

func (m *Metrics) observeRetry() {
	if m == nil {
		return
	}

	m.retries.Inc()
}

func (m *Metrics) observeResult(method string, status int) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
