// Package metrics exposes Prometheus collectors for ingestion, rendering and
// reader sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	JobsFinished    *prometheus.CounterVec
	ImageLookups    *prometheus.CounterVec
	Renders         prometheus.Counter
	RenderedBlocks  prometheus.Histogram
	SessionMessages *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	Documents       prometheus.Gauge
	RenderLatency   prometheus.Summary
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		JobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_jobs_finished_total",
			Help: "Ingestion jobs that reached a final state, by status.",
		}, []string{"status"}),
		ImageLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_image_lookups_total",
			Help: "Image store lookups, by result.",
		}, []string{"result"}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookflow_renders_total",
			Help: "Documents flattened into render blocks.",
		}),
		RenderedBlocks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookflow_rendered_blocks",
			Help:    "Number of blocks per render.",
			Buckets: prometheus.ExponentialBuckets(8, 4, 8),
		}),
		SessionMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookflow_session_messages_total",
			Help: "Reader session messages handled, by type.",
		}, []string{"type"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookflow_active_sessions",
			Help: "Open reader sessions.",
		}),
		Documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bookflow_documents",
			Help: "Documents held in the library.",
		}),
		RenderLatency: newRenderLatency(),
	}
	m.registry.MustRegister(
		m.JobsFinished,
		m.ImageLookups,
		m.Renders,
		m.RenderedBlocks,
		m.SessionMessages,
		m.ActiveSessions,
		m.Documents,
		m.RenderLatency,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
