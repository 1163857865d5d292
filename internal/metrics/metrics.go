// package metrics collects and exposes Prometheus metrics for the token endpoints
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for exchange and refresh counters.
const (
	OutcomeSuccess   = "success"
	OutcomeNoSession = "no_session"
	OutcomeRejected  = "rejected"
	OutcomeUpstream  = "upstream_error"
)

// Recorder is what the HTTP layer reports to. A nil Recorder is never passed; use [Nop] instead.
type Recorder interface {
	RecordExchange(outcome string)
	RecordRefresh(outcome string)
	RecordRotation()
	RecordUpstreamLatency(op string, d time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of [Recorder].
type Collector struct {
	exchanges  *prometheus.CounterVec
	refreshes  *prometheus.CounterVec
	rotations  prometheus.Counter
	latency    *prometheus.HistogramVec
	httpStatus *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanplay_token_exchanges_total",
			Help: "Authorization code exchanges by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanplay_token_refreshes_total",
			Help: "Refresh requests by outcome.",
		}, []string{"outcome"}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanplay_refresh_token_rotations_total",
			Help: "Refreshes in which the provider issued a new refresh token.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scanplay_upstream_latency_seconds",
			Help:    "Token endpoint latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanplay_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.exchanges, c.refreshes, c.rotations, c.latency, c.httpStatus)
	return c
}

func (c *Collector) RecordExchange(outcome string) {
	c.exchanges.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordRotation() {
	c.rotations.Inc()
}

func (c *Collector) RecordUpstreamLatency(op string, d time.Duration) {
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordExchange(string)                       {}
func (Nop) RecordRefresh(string)                        {}
func (Nop) RecordRotation()                             {}
func (Nop) RecordUpstreamLatency(string, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                        {}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
