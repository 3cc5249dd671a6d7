// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the HTTP layer, the unit of work and the workers report to.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
	RecordEventCommitted(eventName string)
	RecordOutboxPublished(eventType string)
	RecordOutboxFailed(eventType string)
	RecordSessionsAbandoned(count int)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	eventsCommitted   *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
	outboxFailed      *prometheus.CounterVec
	sessionsAbandoned prometheus.Counter
}

// NewCollector registers every metric with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pantry_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		eventsCommitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_domain_events_committed_total",
			Help: "Domain events written to the outbox by committed transactions",
		}, []string{"event_name"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_outbox_published_total",
			Help: "Outbox events relayed to the broker",
		}, []string{"event_type"}),
		outboxFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pantry_outbox_failed_total",
			Help: "Failed outbox relay attempts",
		}, []string{"event_type"}),
		sessionsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pantry_sessions_abandoned_total",
			Help: "Shopping sessions abandoned by the stale session sweeper",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.eventsCommitted,
		c.outboxPublished,
		c.outboxFailed,
		c.sessionsAbandoned,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordEventCommitted(eventName string) {
	c.eventsCommitted.WithLabelValues(eventName).Inc()
}

func (c *Collector) RecordOutboxPublished(eventType string) {
	c.outboxPublished.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordOutboxFailed(eventType string) {
	c.outboxFailed.WithLabelValues(eventType).Inc()
}

func (c *Collector) RecordSessionsAbandoned(count int) {
	c.sessionsAbandoned.Add(float64(count))
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordEventCommitted(string)                          {}
func (Nop) RecordOutboxPublished(string)                         {}
func (Nop) RecordOutboxFailed(string)                            {}
func (Nop) RecordSessionsAbandoned(int)                          {}

// Handler serves the gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute returns a mux serving /metrics, for processes without
// an HTTP API.
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
