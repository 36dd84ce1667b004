package workflow

import (
	"time"

	"multistep-rag-be/pkg/rag"
	"multistep-rag-be/pkg/store"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of the engine. A nil *Metrics records nothing.
type Metrics struct {
	stepDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	refinements  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rag_workflow_step_duration_seconds",
			Help:    "Duration of workflow steps",
			Buckets: prometheus.DefBuckets,
		}, []string{"step", "status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rag_workflow_runs_total",
			Help: "Finished workflow runs by outcome or error kind",
		}, []string{"outcome"}),
		refinements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rag_workflow_refinements_total",
			Help: "Question refinements issued after unsuccessful retrieval",
		}),
	}
	reg.MustRegister(m.stepDuration, m.runs, m.refinements)
	return m
}

func (m *Metrics) observeStep(step store.Step, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stepDuration.WithLabelValues(string(step), status).Observe(d.Seconds())
}

func (m *Metrics) observeRun(r RunReport) {
	if m == nil {
		return
	}
	label := string(r.Outcome)
	if r.Err != nil {
		label = "error_" + rag.Kind(r.Err)
	}
	m.runs.WithLabelValues(label).Inc()
}

func (m *Metrics) observeRefinement() {
	if m == nil {
		return
	}
	m.refinements.Inc()
}
