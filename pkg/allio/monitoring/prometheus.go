package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements Metrics using Prometheus for collection.
//
// All metrics are prefixed with "allio_" to avoid naming conflicts with
// whatever else is registered on the same registry.
//
// Metrics exposed:
//   - allio_poll_duration_seconds: histogram of sync engine poll durations
//   - allio_sweep_duration_seconds: histogram of subscription sweep durations
//   - allio_registry_ops_total: counter of registry ops by op and outcome
//   - allio_events_dropped_total: counter of event bus overflow drops
//   - allio_cached_elements: gauge of cached element count
//   - allio_cached_windows: gauge of cached window count
//   - allio_cached_processes: gauge of cached process count
type PrometheusMetrics struct {
	pollDuration     prometheus.Histogram
	sweepDuration    prometheus.Histogram
	registryOps      *prometheus.CounterVec
	eventsDropped    prometheus.Counter
	cachedElements   prometheus.Gauge
	cachedWindows    prometheus.Gauge
	cachedProcesses  prometheus.Gauge
}

// NewPrometheusMetrics constructs a PrometheusMetrics and registers all of
// its collectors on reg. Pass prometheus.NewRegistry() for an isolated
// registry rather than the global default, so multiple Core instances in
// the same process (or in tests) don't collide on duplicate registration.
//
// Registration failures (e.g. a duplicate metric name) panic, matching the
// fail-fast behavior expected at startup.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pollDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "allio_poll_duration_seconds",
		Help:    "Duration of one sync engine poll iteration.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "allio_sweep_duration_seconds",
		Help:    "Duration of one observed-subtree sweep.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
	registryOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "allio_registry_ops_total",
		Help: "Total registry operations, partitioned by operation and outcome.",
	}, []string{"op", "outcome"})
	eventsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "allio_events_dropped_total",
		Help: "Total events dropped because a subscriber's buffer overflowed.",
	})
	cachedElements := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allio_cached_elements",
		Help: "Current number of cached elements.",
	})
	cachedWindows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allio_cached_windows",
		Help: "Current number of cached windows.",
	})
	cachedProcesses := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "allio_cached_processes",
		Help: "Current number of cached processes.",
	})

	reg.MustRegister(pollDuration, sweepDuration, registryOps, eventsDropped, cachedElements, cachedWindows, cachedProcesses)

	return &PrometheusMetrics{
		pollDuration:    pollDuration,
		sweepDuration:   sweepDuration,
		registryOps:     registryOps,
		eventsDropped:   eventsDropped,
		cachedElements:  cachedElements,
		cachedWindows:   cachedWindows,
		cachedProcesses: cachedProcesses,
	}
}

func (m *PrometheusMetrics) RecordPollDuration(d time.Duration)  { m.pollDuration.Observe(d.Seconds()) }
func (m *PrometheusMetrics) RecordSweepDuration(d time.Duration) { m.sweepDuration.Observe(d.Seconds()) }

func (m *PrometheusMetrics) RecordRegistryOp(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.registryOps.WithLabelValues(op, outcome).Inc()
}

func (m *PrometheusMetrics) RecordEventDropped() { m.eventsDropped.Inc() }

func (m *PrometheusMetrics) SetCachedElementCount(n int)  { m.cachedElements.Set(float64(n)) }
func (m *PrometheusMetrics) SetCachedWindowCount(n int)   { m.cachedWindows.Set(float64(n)) }
func (m *PrometheusMetrics) SetCachedProcessCount(n int)  { m.cachedProcesses.Set(float64(n)) }
