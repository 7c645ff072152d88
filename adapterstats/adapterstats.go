// Package adapterstats exposes a small set of Prometheus counters for
// the conditions spec.md §7/§8 calls out as operationally significant:
// command resends, replans, stalls, and dock completions. Modeled on
// jordigilh-kubernaut's use of client_golang counter vectors keyed by a
// low-cardinality label (there, reconciliation outcome; here, robot
// name) rather than a registry per metric kind.
package adapterstats

import "github.com/prometheus/client_golang/prometheus"

// Recorder owns this module's metric vectors and registers them against
// a caller-supplied registry (production code uses
// prometheus.DefaultRegisterer; tests use a throwaway
// prometheus.NewRegistry()).
type Recorder struct {
	resends prometheus.Counter
	replans prometheus.Counter
	stalls  *prometheus.CounterVec
	docks   *prometheus.CounterVec
}

// NewRecorder builds a Recorder and registers its collectors against
// reg. reg must not be nil; pass prometheus.NewRegistry() in tests.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		resends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet_adapter",
			Name:      "command_resends_total",
			Help:      "Total number of path/mode commands resent due to missing driver acknowledgment.",
		}),
		replans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fleet_adapter",
			Name:      "replans_requested_total",
			Help:      "Total number of replans requested due to adapter errors or lane closures.",
		}),
		stalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet_adapter",
			Name:      "robot_stalls_total",
			Help:      "Total number of times a robot's telemetry exceeded the stall threshold.",
		}, []string{"robot"}),
		docks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet_adapter",
			Name:      "dock_completions_total",
			Help:      "Total number of completed docking commands.",
		}, []string{"robot"}),
	}
	reg.MustRegister(r.resends, r.replans, r.stalls, r.docks)
	return r
}

// RecordResend increments the global resend counter.
func (r *Recorder) RecordResend(robot string) {
	if r == nil {
		return
	}
	r.resends.Inc()
}

// RecordReplan increments the global replan counter.
func (r *Recorder) RecordReplan() {
	if r == nil {
		return
	}
	r.replans.Inc()
}

// RecordStall increments the per-robot stall counter.
func (r *Recorder) RecordStall(robot string) {
	if r == nil {
		return
	}
	r.stalls.WithLabelValues(robot).Inc()
}

// RecordDock increments the per-robot dock-completion counter.
func (r *Recorder) RecordDock(robot string) {
	if r == nil {
		return
	}
	r.docks.WithLabelValues(robot).Inc()
}
