package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codewithboateng/champlint/internal/ir"
)

// Metrics holds the server's collectors on a private registry so several
// servers (and tests) never collide on registration.
type Metrics struct {
	reg      *prometheus.Registry
	lints    *prometheus.CounterVec
	findings *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		lints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "champlint",
			Name:      "lint_requests_total",
			Help:      "Lint requests by outcome.",
		}, []string{"outcome"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "champlint",
			Name:      "findings_total",
			Help:      "Findings reported by lint requests, by severity.",
		}, []string{"severity"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "champlint",
			Name:      "lint_duration_seconds",
			Help:      "Time spent analysing a lint request.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	m.reg.MustRegister(
		m.lints, m.findings, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) observeLint(outcome string, seconds float64, fs []ir.Finding) {
	m.lints.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
	for _, f := range fs {
		m.findings.WithLabelValues(string(f.Severity)).Inc()
	}
}
