package lispcore

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the collector's activity to a host's own Prometheus
// registry. It is optional (spec's Non-goals name only multi-
// threading, the numeric tower, and continuations -- metrics are an
// ambient capability, not an excluded feature) and carries zero cost
// when nil: WithMetrics is the only way to install one.
type Metrics struct {
	gcCycles   prometheus.Counter
	liveObjs   prometheus.Gauge
	allocBytes prometheus.Gauge
}

// NewMetrics builds and registers the three gauges/counter named in
// SPEC_FULL.md §11 against reg. Passing prometheus.NewRegistry()
// keeps a test's metrics isolated from the process-global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gcCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lispcore_gc_cycles_total",
			Help: "Total number of mark-and-sweep collection cycles run.",
		}),
		liveObjs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lispcore_heap_live_objects",
			Help: "Number of heap objects marked live in the most recent GC cycle.",
		}),
		allocBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lispcore_alloc_bytes",
			Help: "Estimated bytes currently charged against the interpreter's arena.",
		}),
	}
	reg.MustRegister(m.gcCycles, m.liveObjs, m.allocBytes)
	return m
}

func (m *Metrics) observeGCCycle(marked, freed int64, liveBytes int64) {
	m.gcCycles.Inc()
	m.liveObjs.Set(float64(marked))
	m.allocBytes.Set(float64(liveBytes))
}
