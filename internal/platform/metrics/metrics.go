package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reconciliation engine and the
// consent action path. All methods are nil-safe so tests can pass a nil
// *Metrics without wiring a registry.
type Metrics struct {
	// Full reconciliation pass latency
	ReconcileLatency prometheus.Histogram

	// Consent statuses produced per reconciliation entry
	ConsentStatus *prometheus.CounterVec

	// Grant/revoke outcomes
	ActionOutcome *prometheus.CounterVec

	// Consent store operation latency by operation
	StoreLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all collectors registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		ReconcileLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "consentadmin_reconcile_duration_seconds",
			Help:    "Duration of a full reconciliation pass over all relying parties",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		ConsentStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consentadmin_consent_status_total",
			Help: "Consent statuses produced per relying party per pass",
		}, []string{"status"}), // status: "none", "changed", "ok"

		ActionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "consentadmin_action_outcomes_total",
			Help: "Grant/revoke action outcomes",
		}, []string{"action", "outcome"}),

		StoreLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentadmin_store_duration_seconds",
			Help:    "Duration of consent store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"operation"}), // operation: "get", "save", "delete"
	}
}

// ObserveReconcile records the duration of a reconciliation pass.
func (m *Metrics) ObserveReconcile(d time.Duration) {
	if m != nil {
		m.ReconcileLatency.Observe(d.Seconds())
	}
}

// IncrementStatus records a derived consent status.
func (m *Metrics) IncrementStatus(status string) {
	if m != nil {
		m.ConsentStatus.WithLabelValues(status).Inc()
	}
}

// IncrementAction records a grant/revoke outcome.
func (m *Metrics) IncrementAction(action, outcome string) {
	if m != nil {
		m.ActionOutcome.WithLabelValues(action, outcome).Inc()
	}
}

// ObserveStore records the duration of a consent store operation.
func (m *Metrics) ObserveStore(operation string, d time.Duration) {
	if m != nil {
		m.StoreLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}
