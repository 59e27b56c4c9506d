package server

import "github.com/prometheus/client_golang/prometheus"

// metrics are registered on a per-server registry so tests and multiple
// servers in one process do not collide.
type metrics struct {
	registry *prometheus.Registry
	renders  *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	items    prometheus.Histogram
	probes   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatview_renders_total",
			Help: "Render passes by output and result.",
		}, []string{"output", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatview_render_seconds",
			Help:    "Time spent building and serializing a conversation.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"output"}),
		items: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatview_render_items",
			Help:    "Messages per render pass.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatview_avatar_probes_total",
			Help: "Viewer avatar probes by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.renders, m.latency, m.items, m.probes,
		prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return m
}
