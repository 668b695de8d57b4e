package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

// Recorder exports scheduling passes as prometheus metrics. It implements
// core.Recorder.
type Recorder struct {
	assignments *prometheus.CounterVec
	committed   *prometheus.GaugeVec
	makespan    *prometheus.GaugeVec
	duration    *prometheus.HistogramVec
	failures    *prometheus.CounterVec
}

var _ core.Recorder = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		assignments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_assignments_total",
				Help: "Total number of jobs assigned to each resource",
			},
			[]string{"strategy", "resource"},
		),
		committed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scheduler_committed_time",
				Help: "Committed execution time per resource after the last pass.",
			},
			[]string{"strategy", "resource"},
		),
		makespan: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scheduler_makespan",
				Help: "Makespan of the last pass.",
			},
			[]string{"strategy"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scheduler_pass_duration_seconds",
				Help:    "Wall time spent computing one pass.",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
			},
			[]string{"strategy"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_pass_failures_total",
				Help: "Passes rejected because of invalid input",
			},
			[]string{"strategy", "reason"},
		),
	}
	reg.MustRegister(r.assignments, r.committed, r.makespan, r.duration, r.failures)
	return r
}

func (r *Recorder) ObservePlan(plan *core.Plan, elapsed time.Duration) {
	for _, a := range plan.Assignments {
		r.assignments.WithLabelValues(plan.Strategy, a.ResourceID).Inc()
	}
	for _, res := range plan.Resources {
		r.committed.WithLabelValues(plan.Strategy, res.ID).Set(plan.Load.CommittedTime(res.ID))
	}
	r.makespan.WithLabelValues(plan.Strategy).Set(plan.Makespan())
	r.duration.WithLabelValues(plan.Strategy).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveFailure(strategy string, err error) {
	r.failures.WithLabelValues(strategy, Reason(err)).Inc()
}

// Reason maps an error to a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidJob):
		return "invalid_job"
	case errors.Is(err, core.ErrInvalidResource):
		return "invalid_resource"
	case errors.Is(err, core.ErrNoResourcesAvailable):
		return "no_resources"
	}
	return "other"
}
