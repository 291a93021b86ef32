package router

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistryObserveFromDataLogMeter(t *testing.T) {
	cfg := NewRouterConfig()
	d := NewDataLog(cfg)

	idx, _ := d.NextNativeOffset("topic/a")
	var notifications []wakeNotification
	d.Append(idx, Publish{Topic: "topic/a", Payload: []byte("hello")}, &notifications)
	d.Append(idx, Publish{Topic: "topic/a", Payload: []byte("world")}, &notifications)

	meter, ok := d.Meter("topic/a")
	require.True(t, ok)
	require.Equal(t, uint64(2), meter.Count)

	reg := prometheus.NewRegistry()
	m := NewMetricsRegistry(reg)
	m.Observe("topic/a", meter)

	require.Equal(t, float64(2), testutil.ToFloat64(m.count.With(prometheus.Labels{"filter": "topic/a"})))
	require.Equal(t, float64(meter.TotalSize), testutil.ToFloat64(m.totalSize.With(prometheus.Labels{"filter": "topic/a"})))
}
