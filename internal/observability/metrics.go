package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	submissions  *prometheus.CounterVec
	percentages  prometheus.Histogram
	certificates *prometheus.CounterVec
	feedClients  prometheus.Gauge
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessment_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "assessment_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_submissions_total",
			Help: "Scored quiz submissions by certificate eligibility.",
		}, []string{"eligible"}),
		percentages: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "assessment_submission_percentage",
			Help:    "Distribution of submission percentages.",
			Buckets: []float64{20, 40, 60, 80, 90, 100},
		}),
		certificates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "assessment_certificates_rendered_total",
			Help: "Certificates rendered by format.",
		}, []string{"format"}),
		feedClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "assessment_feed_clients",
			Help: "Connected admin live-feed websocket clients.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// SubmissionScored implements app.Recorder.
func (m *Metrics) SubmissionScored(eligible bool, percentage int) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(strconv.FormatBool(eligible)).Inc()
	m.percentages.Observe(float64(percentage))
}

// CertificateRendered implements app.Recorder.
func (m *Metrics) CertificateRendered(format string) {
	if m == nil {
		return
	}
	m.certificates.WithLabelValues(format).Inc()
}

func (m *Metrics) FeedClientConnected() {
	if m == nil {
		return
	}
	m.feedClients.Inc()
}

func (m *Metrics) FeedClientDisconnected() {
	if m == nil {
		return
	}
	m.feedClients.Dec()
}
