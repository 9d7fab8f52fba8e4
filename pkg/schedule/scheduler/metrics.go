package scheduler

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is optional Prometheus instrumentation for the scheduler. A nil
// *Metrics (the default) disables instrumentation entirely; every observer
// call on this type is a no-op when m is nil.
type Metrics struct {
	runDuration prometheus.Histogram
	backsteps   prometheus.Counter
	failures    prometheus.Counter
	lastHard    prometheus.Gauge
	lastSoft    prometheus.Gauge
}

// NewMetrics builds and registers the scheduler's metric set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "schedcore_run_duration_seconds",
			Help:    "Wall-clock duration of a single Schedule call.",
			Buckets: prometheus.DefBuckets,
		}),
		backsteps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedcore_backsteps_total",
			Help: "Cumulative count of repair-loop backsteps across every run.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "schedcore_run_failures_total",
			Help: "Cumulative count of Schedule calls that returned an error.",
		}),
		lastHard: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedcore_last_run_hard_violations",
			Help: "Total hard violation value of the most recently returned plan.",
		}),
		lastSoft: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schedcore_last_run_soft_violations",
			Help: "Total soft violation value of the most recently returned plan.",
		}),
	}
	reg.MustRegister(m.runDuration, m.backsteps, m.failures, m.lastHard, m.lastSoft)
	return m
}

func (m *Metrics) observeRun(d time.Duration, backsteps int, hard, soft int, err error) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
	m.backsteps.Add(float64(backsteps))
	if err != nil {
		m.failures.Inc()
		return
	}
	m.lastHard.Set(float64(hard))
	m.lastSoft.Set(float64(soft))
}
