package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"dexlead/internal/metrics"
)

func TestExporter_CollectsCounterSnapshot(t *testing.T) {
	counters := metrics.NewCounters()
	counters.Inc(metrics.EventPolls)
	counters.Add(metrics.EventDiscoveries, 3)
	counters.Inc(metrics.SkipEvent(metrics.SkipNoTelegram))

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewExporter(counters)))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Equal(t, "dexlead_events_total", families[0].GetName())

	values := make(map[string]float64)
	for _, m := range families[0].GetMetric() {
		require.Len(t, m.GetLabel(), 1)
		values[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	require.Equal(t, 1.0, values[metrics.EventPolls])
	require.Equal(t, 3.0, values[metrics.EventDiscoveries])
	require.Equal(t, 1.0, values["skipped_no_telegram"])
}

func TestExporter_ReflectsLaterIncrements(t *testing.T) {
	counters := metrics.NewCounters()
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewExporter(counters)))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Empty(t, families, "no series before any event")

	counters.Inc(metrics.EventNotified)

	families, err = registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.True(t, strings.HasPrefix(families[0].GetName(), "dexlead_"))
}
