package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

// Plan is the outcome of one scheduling pass.
type Plan struct {
	ID          string
	Strategy    string
	Jobs        []Job      // in processing order
	Resources   []Resource // in input order
	Assignments []Assignment
	Load        *LoadTracker

	// Cursor is the last resource index used by a round-robin pass, to be
	// threaded into the next RoundRobin. -1 for other strategies.
	Cursor int
}

// Makespan is the largest committed time over the pass's resources.
func (p *Plan) Makespan() float64 {
	max := 0.0
	for _, r := range p.Resources {
		if c := p.Load.CommittedTime(r.ID); c > max {
			max = c
		}
	}
	return max
}

// ResourceJobs groups the jobs placed on one resource, in assignment order.
type ResourceJobs struct {
	Resource Resource
	Jobs     []Job
}

// ByResource groups assignments per resource, resources in input order.
func (p *Plan) ByResource() []ResourceJobs {
	idx := make(map[string]int, len(p.Resources))
	out := make([]ResourceJobs, len(p.Resources))
	for i, r := range p.Resources {
		idx[r.ID] = i
		out[i].Resource = r
	}
	jobs := make(map[string]Job, len(p.Jobs))
	for _, j := range p.Jobs {
		jobs[j.ID] = j
	}
	for _, a := range p.Assignments {
		i := idx[a.ResourceID]
		out[i].Jobs = append(out[i].Jobs, jobs[a.JobID])
	}
	return out
}

// Strategy is the pull side of the contract: the host asks for assignments.
type Strategy interface {
	Name() string
	Schedule(jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error)
}

// Recorder observes passes. pkg/metrics provides the prometheus one.
type Recorder interface {
	ObservePlan(plan *Plan, elapsed time.Duration)
	ObserveFailure(strategy string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObservePlan(*Plan, time.Duration) {}
func (nopRecorder) ObserveFailure(string, error)     {}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithClock(c clock.PassiveClock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// Scheduler is the longest-processing-time-first greedy: jobs sorted by
// workload descending, each placed on the resource with the smallest
// projected completion time.
type Scheduler struct {
	recorder Recorder
	clock    clock.PassiveClock
}

const LPTName = "lpt"

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		recorder: nopRecorder{},
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Name() string { return LPTName }

// Schedule runs one pass over a fresh, all-zero load context.
func (s *Scheduler) Schedule(jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error) {
	return s.ScheduleOnto(nil, jobs, resources)
}

// ScheduleOnto runs one pass on top of prior load (resources already queued
// with work). prior is never modified; the returned plan carries the updated
// copy. A nil prior is a fresh context.
func (s *Scheduler) ScheduleOnto(prior *LoadTracker, jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error) {
	start := s.clock.Now()
	nj, nr, err := normalizeBatch(jobs, resources)
	if err != nil {
		s.recorder.ObserveFailure(LPTName, err)
		return nil, err
	}

	slices.SortStableFunc(nj, func(a, b Job) int {
		switch {
		case a.Workload > b.Workload:
			return -1
		case a.Workload < b.Workload:
			return 1
		}
		return 0
	})

	tracker := seedTracker(prior, nr)
	plan := newPlan(LPTName, nj, nr, tracker)
	for _, j := range nj {
		best, bestTime := -1, 0.0
		for i, r := range nr {
			t, err := tracker.ProjectedCompletionTime(r.ID, j.Workload)
			if err != nil {
				return nil, err
			}
			// strict < keeps the first-seen resource on ties
			if best < 0 || t < bestTime {
				best, bestTime = i, t
			}
		}
		chosen := nr[best].ID
		if err := tracker.Commit(chosen, j.Workload); err != nil {
			return nil, err
		}
		plan.Assignments = append(plan.Assignments, Assignment{JobID: j.ID, ResourceID: chosen})
		klog.V(2).InfoS("Assigned job", "plan", plan.ID, "job", j.ID, "workload", j.Workload,
			"resource", chosen, "completion", bestTime)
	}

	elapsed := s.clock.Since(start)
	klog.V(1).InfoS("Scheduled batch", "plan", plan.ID, "strategy", LPTName, "jobs", len(nj),
		"resources", len(nr), "makespan", plan.Makespan(), "elapsed", elapsed)
	s.recorder.ObservePlan(plan, elapsed)
	return plan, nil
}

// normalizeBatch validates everything up front so that a bad entry aborts the
// pass before any load is touched.
func normalizeBatch(jobs []JobDescriptor, resources []ResourceDescriptor) ([]Job, []Resource, error) {
	nr, err := NormalizeResources(resources)
	if err != nil {
		return nil, nil, err
	}
	nj, err := NormalizeJobs(jobs)
	if err != nil {
		return nil, nil, err
	}
	return nj, nr, nil
}

func seedTracker(prior *LoadTracker, resources []Resource) *LoadTracker {
	if prior == nil {
		return NewLoadTracker(resources)
	}
	t := prior.Clone()
	for _, r := range resources {
		t.Track(r)
	}
	return t
}

func newPlan(strategy string, jobs []Job, resources []Resource, t *LoadTracker) *Plan {
	return &Plan{
		ID:          uuid.NewString(),
		Strategy:    strategy,
		Jobs:        jobs,
		Resources:   resources,
		Assignments: make([]Assignment, 0, len(jobs)),
		Load:        t,
		Cursor:      -1,
	}
}

// IsInputError reports whether err is one of the caller-input errors.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidJob) || errors.Is(err, ErrInvalidResource) ||
		errors.Is(err, ErrNoResourcesAvailable)
}
