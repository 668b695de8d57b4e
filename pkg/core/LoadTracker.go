package core

import "github.com/pkg/errors"

// ResourceLoad is the committed execution time on one resource.
type ResourceLoad struct {
	ResourceID string
	Committed  float64
}

type trackedResource struct {
	throughput float64
	committed  float64
}

// LoadTracker accumulates committed execution time per resource id. It is not
// safe for concurrent use; every pass works on its own tracker (or a Clone).
type LoadTracker struct {
	order []string
	byID  map[string]*trackedResource
}

// NewLoadTracker starts every resource at zero load.
func NewLoadTracker(resources []Resource) *LoadTracker {
	t := &LoadTracker{
		order: make([]string, 0, len(resources)),
		byID:  make(map[string]*trackedResource, len(resources)),
	}
	for _, r := range resources {
		t.Track(r)
	}
	return t
}

// Track registers r with zero load. Re-tracking a known id updates its
// throughput and keeps the load already committed.
func (t *LoadTracker) Track(r Resource) {
	if tr, ok := t.byID[r.ID]; ok {
		tr.throughput = r.Throughput()
		return
	}
	t.order = append(t.order, r.ID)
	t.byID[r.ID] = &trackedResource{throughput: r.Throughput()}
}

// Has reports whether id is tracked.
func (t *LoadTracker) Has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// ProjectedCompletionTime is the time at which a job of the given workload
// would finish on id if it were appended now. Pure read.
func (t *LoadTracker) ProjectedCompletionTime(id string, workload float64) (float64, error) {
	tr, ok := t.byID[id]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownResource, "resource %q", id)
	}
	return workload/tr.throughput + tr.committed, nil
}

// Commit adds the execution time of workload to id.
func (t *LoadTracker) Commit(id string, workload float64) error {
	tr, ok := t.byID[id]
	if !ok {
		return errors.Wrapf(ErrUnknownResource, "resource %q", id)
	}
	tr.committed += workload / tr.throughput
	return nil
}

// CommittedTime returns the load on id, zero for unknown ids.
func (t *LoadTracker) CommittedTime(id string) float64 {
	if tr, ok := t.byID[id]; ok {
		return tr.committed
	}
	return 0
}

// Makespan is the largest committed time over all tracked resources.
func (t *LoadTracker) Makespan() float64 {
	max := 0.0
	for _, tr := range t.byID {
		if tr.committed > max {
			max = tr.committed
		}
	}
	return max
}

// Loads snapshots every resource in registration order.
func (t *LoadTracker) Loads() []ResourceLoad {
	out := make([]ResourceLoad, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, ResourceLoad{ResourceID: id, Committed: t.byID[id].committed})
	}
	return out
}

// Clone returns an independent copy.
func (t *LoadTracker) Clone() *LoadTracker {
	c := &LoadTracker{
		order: append([]string(nil), t.order...),
		byID:  make(map[string]*trackedResource, len(t.byID)),
	}
	for id, tr := range t.byID {
		cp := *tr
		c.byID[id] = &cp
	}
	return c
}

// Reset zeroes every load and keeps the resources.
func (t *LoadTracker) Reset() {
	for _, tr := range t.byID {
		tr.committed = 0
	}
}
