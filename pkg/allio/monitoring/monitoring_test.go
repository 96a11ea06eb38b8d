package monitoring_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/monitoring"
)

func TestNoOpMetricsSatisfiesInterface(t *testing.T) {
	var _ monitoring.Metrics = monitoring.NoOpMetrics{}
}

func TestPrometheusMetricsSatisfiesInterface(t *testing.T) {
	var _ monitoring.Metrics = (*monitoring.PrometheusMetrics)(nil)
}

func TestGlobalMetricsDefaultsToNoOp(t *testing.T) {
	monitoring.SetGlobalMetrics(nil)
	_, ok := monitoring.GetGlobalMetrics().(monitoring.NoOpMetrics)
	assert.True(t, ok)
}

func TestSetGlobalMetricsInstallsImplementation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewPrometheusMetrics(reg)

	monitoring.SetGlobalMetrics(m)
	t.Cleanup(func() { monitoring.SetGlobalMetrics(nil) })

	assert.Same(t, m, monitoring.GetGlobalMetrics())
}

func TestSetGlobalMetricsNilResetsToNoOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	monitoring.SetGlobalMetrics(monitoring.NewPrometheusMetrics(reg))

	monitoring.SetGlobalMetrics(nil)

	_, ok := monitoring.GetGlobalMetrics().(monitoring.NoOpMetrics)
	assert.True(t, ok)
}

func TestPrometheusMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewPrometheusMetrics(reg)

	m.RecordPollDuration(5 * time.Millisecond)
	m.RecordSweepDuration(2 * time.Millisecond)
	m.RecordRegistryOp("get", true)
	m.RecordRegistryOp("set", false)
	m.RecordEventDropped()
	m.SetCachedElementCount(10)
	m.SetCachedWindowCount(2)
	m.SetCachedProcessCount(1)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, expected := range []string{
		"allio_poll_duration_seconds",
		"allio_sweep_duration_seconds",
		"allio_registry_ops_total",
		"allio_events_dropped_total",
		"allio_cached_elements",
		"allio_cached_windows",
		"allio_cached_processes",
	} {
		assert.True(t, names[expected], "expected metric %s to be registered", expected)
	}
}

func TestNewPrometheusMetricsPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	monitoring.NewPrometheusMetrics(reg)

	assert.Panics(t, func() {
		monitoring.NewPrometheusMetrics(reg)
	})
}
