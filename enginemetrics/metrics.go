// Package enginemetrics exposes optional prometheus instrumentation for the
// engine's hot paths. The Engine, Executor, ComponentStore and Pathfinder
// accept a *Recorder and treat a nil Recorder as a no-op, so instrumentation
// is never required for correctness.
package enginemetrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder bundles the collectors SPEC_FULL.md's DOMAIN STACK section
// assigns to prometheus/client_golang: parked worker count, per-tick
// latency, component operations and population per type, and pathfind
// latency.
type Recorder struct {
	Registry *prometheus.Registry

	WorkersParked   prometheus.Gauge
	TickDuration    prometheus.Histogram
	ComponentOps    *prometheus.CounterVec
	ComponentCount  *prometheus.GaugeVec
	PathfindLatency prometheus.Histogram
}

// NewRecorder builds a Recorder registered against a fresh prometheus
// registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		Registry: reg,
		WorkersParked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "engine",
			Subsystem: "executor",
			Name:      "workers_parked",
			Help:      "Number of worker goroutines currently parked on their wake flag.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "system_manager",
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a single Engine.Tick call (SystemManager.Update plus the pathfinder expiry sweep).",
			Buckets:   prometheus.DefBuckets,
		}),
		ComponentOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "component_store",
			Name:      "ops_total",
			Help:      "Count of ComponentStore create/destroy operations per component type and op.",
		}, []string{"component_type", "op"}),
		ComponentCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "engine",
			Subsystem: "component_store",
			Name:      "live_count",
			Help:      "Current dense count of a component type's SparseSet.",
		}, []string{"component_type"}),
		PathfindLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "pathfinder",
			Name:      "pathfind_duration_seconds",
			Help:      "Duration of a single Pathfind call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(r.WorkersParked, r.TickDuration, r.ComponentOps, r.ComponentCount, r.PathfindLatency)
	return r
}

// ObserveComponentOp is a nil-safe helper so callers don't need to guard
// every call site with "if recorder != nil".
func (r *Recorder) ObserveComponentOp(componentType, op string) {
	if r == nil {
		return
	}
	r.ComponentOps.WithLabelValues(componentType, op).Inc()
}

// SetComponentCount is a nil-safe helper mirroring ObserveComponentOp.
func (r *Recorder) SetComponentCount(componentType string, count float64) {
	if r == nil {
		return
	}
	r.ComponentCount.WithLabelValues(componentType).Set(count)
}

// SetWorkersParked is a nil-safe helper mirroring ObserveComponentOp.
func (r *Recorder) SetWorkersParked(n float64) {
	if r == nil {
		return
	}
	r.WorkersParked.Set(n)
}

// ObserveTick is a nil-safe helper mirroring ObserveComponentOp.
func (r *Recorder) ObserveTick(seconds float64) {
	if r == nil {
		return
	}
	r.TickDuration.Observe(seconds)
}

// ObservePathfind is a nil-safe helper mirroring ObserveComponentOp.
func (r *Recorder) ObservePathfind(seconds float64) {
	if r == nil {
		return
	}
	r.PathfindLatency.Observe(seconds)
}
