// Package metrics exposes Prometheus collectors for the proxy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes recorded in grokway_requests_total.
const (
	OutcomeStreamed        = "streamed"
	OutcomeBootstrapFailed = "bootstrap_failed"
	OutcomeStreamFailed    = "stream_failed"
	OutcomeClientGone      = "client_gone"
	OutcomeRejectedInput   = "rejected_input"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests          *prometheus.CounterVec
	rateLimited       prometheus.Counter
	frames            prometheus.Counter
	parseErrors       prometheus.Counter
	bootstrapDuration prometheus.Histogram
	requestDuration   *prometheus.HistogramVec
}

// New creates and registers the collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grokway",
			Name:      "requests_total",
			Help:      "Chat completion requests by outcome",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grokway",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grokway",
			Name:      "stream_frames_total",
			Help:      "Content deltas forwarded to clients",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grokway",
			Name:      "frame_parse_errors_total",
			Help:      "Upstream lines dropped because they were not valid JSON",
		}),
		bootstrapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "grokway",
			Name:      "upstream_bootstrap_seconds",
			Help:      "Latency of the conversation bootstrap call",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grokway",
			Name:      "request_duration_seconds",
			Help:      "Total chat completion duration, including streaming",
			// LLM streams run long
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.requests,
		m.rateLimited,
		m.frames,
		m.parseErrors,
		m.bootstrapDuration,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one finished chat completion.
func (m *Metrics) ObserveRequest(outcome string, duration, bootstrap time.Duration, frames, parseErrors int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if bootstrap > 0 {
		m.bootstrapDuration.Observe(bootstrap.Seconds())
	}
	m.frames.Add(float64(frames))
	m.parseErrors.Add(float64(parseErrors))
}

// IncRejectedInput counts a request refused before reaching the upstream.
func (m *Metrics) IncRejectedInput() {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(OutcomeRejectedInput).Inc()
}

// IncRateLimited counts a request rejected by the rate limiter.
func (m *Metrics) IncRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
