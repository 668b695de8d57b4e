package core

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ContinuingStrategy can run a pass on top of load left by earlier passes.
type ContinuingStrategy interface {
	Strategy
	ScheduleOnto(prior *LoadTracker, jobs []JobDescriptor, resources []ResourceDescriptor) (*Plan, error)
}

// CentralUnit is the host-facing side of the scheduler: the orchestrator
// pushes the next batch (SubmitJobs, SetResources) and pulls assignments
// (Dispatch). Push and pull may come from different goroutines.
type CentralUnit struct {
	Strategy Strategy

	// ContinueLoad carries committed load from one Dispatch into the next,
	// for pools whose resources still have queued work.
	ContinueLoad bool

	mu        sync.Mutex
	pending   []JobDescriptor
	resources []ResourceDescriptor
	load      *LoadTracker
	decisions []Decision
	now       func() time.Time
}

func NewCentralUnit(strategy Strategy) *CentralUnit {
	return &CentralUnit{Strategy: strategy, now: time.Now}
}

// SubmitJobs queues jobs for the next Dispatch.
func (cu *CentralUnit) SubmitJobs(jobs ...JobDescriptor) {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	cu.pending = append(cu.pending, jobs...)
}

// SetResources replaces the pool used by the next Dispatch.
func (cu *CentralUnit) SetResources(rs ...ResourceDescriptor) {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	cu.resources = append([]ResourceDescriptor(nil), rs...)
}

// Pending returns the number of jobs waiting for the next Dispatch.
func (cu *CentralUnit) Pending() int {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	return len(cu.pending)
}

// Dispatch schedules the pending batch. On failure the batch stays queued and
// no load is carried over.
func (cu *CentralUnit) Dispatch() (*Plan, error) {
	cu.mu.Lock()
	defer cu.mu.Unlock()

	if cu.Strategy == nil {
		return nil, errors.New("central unit has no strategy")
	}

	var (
		plan *Plan
		err  error
	)
	if cs, ok := cu.Strategy.(ContinuingStrategy); ok && cu.ContinueLoad {
		plan, err = cs.ScheduleOnto(cu.load, cu.pending, cu.resources)
	} else {
		plan, err = cu.Strategy.Schedule(cu.pending, cu.resources)
	}
	if err != nil {
		klog.ErrorS(err, "Dispatch failed", "strategy", cu.Strategy.Name(), "pending", len(cu.pending))
		return nil, err
	}

	switch rr := cu.Strategy.(type) {
	case RoundRobin:
		rr.Last = plan.Cursor
		cu.Strategy = rr
	case *RoundRobin:
		rr.Last = plan.Cursor
	}
	if cu.ContinueLoad {
		// the caller owns plan.Load
		cu.load = plan.Load.Clone()
	}
	cu.pending = nil
	cu.record(plan)
	return plan, nil
}

// ResetLoad drops any load carried between rounds.
func (cu *CentralUnit) ResetLoad() {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	cu.load = nil
}

// Load returns the carried load context, nil when none.
func (cu *CentralUnit) Load() *LoadTracker {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	if cu.load == nil {
		return nil
	}
	return cu.load.Clone()
}

func (cu *CentralUnit) record(plan *Plan) {
	workloads := make(map[string]float64, len(plan.Jobs))
	for _, j := range plan.Jobs {
		workloads[j.ID] = j.Workload
	}
	// replay commits to recover each job's completion time
	running := map[string]float64{}
	throughput := map[string]float64{}
	for _, r := range plan.Resources {
		throughput[r.ID] = r.Throughput()
		running[r.ID] = plan.Load.CommittedTime(r.ID)
	}
	for i := len(plan.Assignments) - 1; i >= 0; i-- {
		a := plan.Assignments[i]
		running[a.ResourceID] -= workloads[a.JobID] / throughput[a.ResourceID]
	}
	ts := time.Now()
	if cu.now != nil {
		ts = cu.now()
	}
	for _, a := range plan.Assignments {
		running[a.ResourceID] += workloads[a.JobID] / throughput[a.ResourceID]
		cu.decisions = append(cu.decisions, Decision{
			Round:      plan.ID,
			Strategy:   plan.Strategy,
			JobID:      a.JobID,
			ResourceID: a.ResourceID,
			Workload:   workloads[a.JobID],
			Completion: running[a.ResourceID],
			Timestamp:  ts,
		})
	}
}

// Decisions returns a copy of the decision log.
func (cu *CentralUnit) Decisions() []Decision {
	cu.mu.Lock()
	defer cu.mu.Unlock()
	return append([]Decision(nil), cu.decisions...)
}

// WriteDecisionTable prints the decision log as a fixed-width table.
func (cu *CentralUnit) WriteDecisionTable(w io.Writer) {
	fmt.Fprintln(w, "================= Scheduling Decision Summary =================")
	fmt.Fprintf(w, "%-12s %-12s %-16s %-12s %-10s\n", "Job", "Strategy", "Resource", "Workload", "Completion")
	for _, d := range cu.Decisions() {
		fmt.Fprintf(w, "%-12s %-12s %-16s %-12.2f %-10.4f\n",
			d.JobID, d.Strategy, d.ResourceID, d.Workload, d.Completion)
	}
}
