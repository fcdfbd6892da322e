// Package metrics exposes controller-manager self-metrics: reconcile
// counts and latencies per controller, independent of the cluster's own
// Resource/Function metric pipeline (§6's `/metrics` self-exposition,
// distinct from the Prometheus-compatible metrics datasource the HPA reads
// from — see SPEC_FULL.md's Non-goals).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder tracks reconcile outcomes for every control loop sharing one
// controller-manager process.
type Recorder struct {
	ReconcileTotal    *prometheus.CounterVec
	ReconcileDuration *prometheus.HistogramVec
}

// NewRecorder builds and registers a Recorder against reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		ReconcileTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "minik8s_controller_reconcile_total",
			Help: "Total reconcile attempts per controller, labeled by outcome.",
		}, []string{"controller", "outcome"}),
		ReconcileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "minik8s_controller_reconcile_duration_seconds",
			Help:    "Reconcile latency per controller.",
			Buckets: prometheus.DefBuckets,
		}, []string{"controller"}),
	}
	reg.MustRegister(r.ReconcileTotal, r.ReconcileDuration)
	return r
}

// Observe records one reconcile's outcome and duration in seconds.
func (r *Recorder) Observe(controller string, seconds float64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.ReconcileTotal.WithLabelValues(controller, outcome).Inc()
	r.ReconcileDuration.WithLabelValues(controller).Observe(seconds)
}
