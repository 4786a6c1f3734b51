package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects bot and HTTP counters on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	documents *prometheus.CounterVec
	duration  *prometheus.SummaryVec
	fallbacks prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.SummaryVec
}

// NewMetrics creates the collectors and registers them with a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		documents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_bot_documents_total",
				Help: "Uploaded documents by outcome",
			},
			[]string{"outcome"},
		),
		duration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "resume_bot_analysis_duration_seconds",
				Help: "Time from accepting a document to the end of delivery",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"outcome"},
		),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "resume_bot_plain_text_fallbacks_total",
			Help: "Analyses resent as plain text after the markup was rejected",
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpDuration: factory.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// DocumentRejected counts a document turned away before analysis, e.g.
// "rate_limited" or "unsupported_type".
func (m *Metrics) DocumentRejected(reason string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(reason).Inc()
}

// AnalysisFinished records a completed pipeline run. outcome is "delivered"
// or a failure reason.
func (m *Metrics) AnalysisFinished(outcome string, fellBack bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if fellBack {
		m.fallbacks.Inc()
	}
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}
