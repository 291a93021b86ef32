package router

import "github.com/prometheus/client_golang/prometheus"

// SubscriptionMeter is the observable state of one filter's commit log:
// message count, the offset of the last append, cumulative payload size,
// and the current head/tail segment ids.
type SubscriptionMeter struct {
	Count        uint64
	AppendOffset Offset
	TotalSize    uint64
	HeadSegment  SegmentId
	TailSegment  SegmentId
}

// MetricsRegistry exposes each filter's SubscriptionMeter as Prometheus
// gauges, labeled by filter. It is a thin, read-only adapter over
// DataLog.Meter — additive instrumentation, not a network-facing exporter,
// so it carries no transport dependency of its own.
type MetricsRegistry struct {
	count        *prometheus.GaugeVec
	appendOffset *prometheus.GaugeVec
	totalSize    *prometheus.GaugeVec
	segmentSpan  *prometheus.GaugeVec
}

// NewMetricsRegistry creates and registers the router's gauge vectors
// against reg. Pass prometheus.NewRegistry() for an isolated registry in
// tests, or prometheus.DefaultRegisterer in production.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	m := &MetricsRegistry{
		count: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_filter_message_count",
			Help: "Number of publishes appended to a filter's commit log.",
		}, []string{"filter"}),
		appendOffset: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_filter_append_offset_position",
			Help: "Position component of the last append offset for a filter.",
		}, []string{"filter"}),
		totalSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_filter_total_size_bytes",
			Help: "Cumulative payload size appended to a filter's commit log.",
		}, []string{"filter"}),
		segmentSpan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "router_filter_segment_span",
			Help: "Number of live segments (tail - head + 1) for a filter.",
		}, []string{"filter"}),
	}

	reg.MustRegister(m.count, m.appendOffset, m.totalSize, m.segmentSpan)
	return m
}

// Observe updates the gauges for one filter from its current meter.
func (m *MetricsRegistry) Observe(filter Filter, meter SubscriptionMeter) {
	label := prometheus.Labels{"filter": string(filter)}
	m.count.With(label).Set(float64(meter.Count))
	m.appendOffset.With(label).Set(float64(meter.AppendOffset.Position))
	m.totalSize.With(label).Set(float64(meter.TotalSize))
	m.segmentSpan.With(label).Set(float64(meter.TailSegment - meter.HeadSegment + 1))
}
