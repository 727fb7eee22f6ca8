// Package metrics exposes Prometheus instruments for the approval workflow,
// identifier allocation and the revenue sweep. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "assetrent"

type Metrics struct {
	registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	allocations   *prometheus.CounterVec
	sweeps        *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	sweepSkipped  prometheus.Counter
	reminders     prometheus.Counter
}

// New registers every instrument on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions by entity kind and where they landed (live or pending).",
		}, []string{"kind", "target"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_resolutions_total",
			Help:      "Pending record resolutions by entity kind and outcome.",
		}, []string{"kind", "outcome"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_allocations_total",
			Help:      "Asset identifier allocations by mode and result.",
		}, []string{"mode", "result"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_sweeps_total",
			Help:      "Revenue sweeps by result.",
		}, []string{"result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "revenue_sweep_duration_seconds",
			Help:      "Wall time of completed revenue sweeps.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		sweepSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_skipped_rentals_total",
			Help:      "Rentals skipped by the revenue sweep because of data errors.",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "billing_reminders_total",
			Help:      "Rentals included in billing reminder digests.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.resolutions,
		m.allocations,
		m.sweeps,
		m.sweepDuration,
		m.sweepSkipped,
		m.reminders,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Submission(kind, target string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(kind, target).Inc()
}

func (m *Metrics) Resolution(kind, outcome string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) Allocation(mode, result string) {
	if m == nil {
		return
	}
	m.allocations.WithLabelValues(mode, result).Inc()
}

func (m *Metrics) Sweep(result string, elapsed time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(result).Inc()
	if result == "ok" {
		m.sweepDuration.Observe(elapsed.Seconds())
	}
	m.sweepSkipped.Add(float64(skipped))
}

func (m *Metrics) Reminders(n int) {
	if m == nil {
		return
	}
	m.reminders.Add(float64(n))
}
