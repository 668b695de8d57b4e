package core

import (
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"
)

const RoundRobinName = "round-robin"

// NextIndex is the resource index after last in a pool of n, wrapping around.
// last = -1 means nothing was selected yet.
func NextIndex(last, n int) int {
	if n <= 0 {
		return -1
	}
	return ((last+1)%n + n) % n
}

// RoundRobin cycles through the pool in input order, one job per step, jobs
// taken in submission order. Jobs bound to a resource in the pool stay there
// and do not advance the cursor. The cursor is threaded explicitly: build the
// next round's strategy from plan.Cursor. Clock defaults to the real clock.
type RoundRobin struct {
	Last     int
	Recorder Recorder
	Clock    clock.PassiveClock
}

var (
	_ ContinuingStrategy = RoundRobin{}
	_ ContinuingStrategy = (*Scheduler)(nil)
)

func NewRoundRobin() RoundRobin { return RoundRobin{Last: -1} }

func (s RoundRobin) Name() string { return RoundRobinName }

func (s RoundRobin) Schedule(jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error) {
	return s.ScheduleOnto(nil, jobs, resources)
}

// ScheduleOnto cycles as Schedule does, committing on top of prior load.
// prior is never modified.
func (s RoundRobin) ScheduleOnto(prior *LoadTracker, jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error) {
	rec := s.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	clk := s.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	start := clk.Now()
	nj, nr, err := normalizeBatch(jobs, resources)
	if err != nil {
		rec.ObserveFailure(RoundRobinName, err)
		return nil, err
	}

	index := make(map[string]int, len(nr))
	for i, r := range nr {
		index[r.ID] = i
	}
	tracker := seedTracker(prior, nr)
	plan := newPlan(RoundRobinName, nj, nr, tracker)
	last := s.Last
	for i, j := range nj {
		target := -1
		if b, ok := jobs[i].(BoundJob); ok && b.BoundResource() != "" {
			if bi, known := index[b.BoundResource()]; known {
				target = bi
			}
		}
		if target < 0 {
			last = NextIndex(last, len(nr))
			target = last
		}
		chosen := nr[target].ID
		if err := tracker.Commit(chosen, j.Workload); err != nil {
			return nil, err
		}
		plan.Assignments = append(plan.Assignments, Assignment{JobID: j.ID, ResourceID: chosen})
	}
	plan.Cursor = last

	elapsed := clk.Since(start)
	klog.V(1).InfoS("Scheduled batch", "plan", plan.ID, "strategy", RoundRobinName, "jobs", len(nj),
		"resources", len(nr), "makespan", plan.Makespan(), "cursor", last)
	rec.ObservePlan(plan, elapsed)
	return plan, nil
}
