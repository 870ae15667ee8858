package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the lifecycle engine.
type Metrics struct {
	WorkflowsExecuted *prometheus.CounterVec
	StepsExecuted     *prometheus.CounterVec
	AuditRecords      prometheus.Counter
	EventsDeduped     prometheus.Counter
}

// New registers all collectors on the given registerer. Passing a fresh
// registry keeps tests isolated; nil means the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		WorkflowsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jml_workflows_executed_total",
			Help: "Workflow executions by event kind and outcome.",
		}, []string{"kind", "outcome"}),
		StepsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jml_steps_executed_total",
			Help: "Workflow steps by system, operation, and outcome.",
		}, []string{"system", "operation", "outcome"}),
		AuditRecords: factory.NewCounter(prometheus.CounterOpts{
			Name: "jml_audit_records_total",
			Help: "Audit records written.",
		}),
		EventsDeduped: factory.NewCounter(prometheus.CounterOpts{
			Name: "jml_events_deduped_total",
			Help: "HR events dropped as duplicate deliveries.",
		}),
	}
}

// Outcome labels a success flag for counter vectors.
func Outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
