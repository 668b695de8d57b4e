package core

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Binding is an assignment expressed as indices into the caller's own job and
// resource collections.
type Binding struct {
	JobIndex      int
	ResourceIndex int
}

// Binder translates assignments back to the caller's identifier scheme.
type Binder struct {
	jobs      map[string]int
	resources map[string]int
}

// NewBinder indexes the caller's ids by position. Later duplicates are ignored.
func NewBinder(jobIDs, resourceIDs []string) *Binder {
	b := &Binder{
		jobs:      make(map[string]int, len(jobIDs)),
		resources: make(map[string]int, len(resourceIDs)),
	}
	for i, id := range jobIDs {
		if _, ok := b.jobs[id]; !ok {
			b.jobs[id] = i
		}
	}
	for i, id := range resourceIDs {
		if _, ok := b.resources[id]; !ok {
			b.resources[id] = i
		}
	}
	return b
}

// BinderFor indexes descriptors in the order the caller submitted them.
func BinderFor(jobs []JobDescriptor, resources []ResourceDescriptor) *Binder {
	jobIDs := make([]string, 0, len(jobs))
	for _, j := range jobs {
		jobIDs = append(jobIDs, j.JobID())
	}
	resIDs := make([]string, 0, len(resources))
	for _, r := range resources {
		resIDs = append(resIDs, r.ResourceID())
	}
	return NewBinder(jobIDs, resIDs)
}

// Bind keeps the assignment order. Any unknown id fails the whole call.
func (b *Binder) Bind(assignments []Assignment) ([]Binding, error) {
	out := make([]Binding, 0, len(assignments))
	for _, a := range assignments {
		ji, ok := b.jobs[a.JobID]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownJob, "job %q", a.JobID)
		}
		ri, ok := b.resources[a.ResourceID]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownResource, "resource %q", a.ResourceID)
		}
		out = append(out, Binding{JobIndex: ji, ResourceIndex: ri})
	}
	return out, nil
}

// WriteReport prints, for every resource in input order, a "Cloudlets vm<i>"
// header followed by the workloads placed on it in assignment order.
func WriteReport(w io.Writer, plan *Plan) error {
	bw := bufio.NewWriter(w)
	for i, group := range plan.ByResource() {
		bw.WriteString("Cloudlets vm" + strconv.Itoa(i) + "\n")
		for _, j := range group.Jobs {
			bw.WriteString(FormatWorkload(j.Workload) + "\n")
		}
	}
	return bw.Flush()
}

// FormatWorkload renders a workload the way the reference simulator printed
// single-precision floats: "900.0", "0.5", "1.0E7".
func FormatWorkload(v float64) string {
	f := float64(float32(v))
	abs := math.Abs(f)
	if f == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(f, 'f', -1, 32)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(f, 'E', -1, 32)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mant + "E" + strconv.Itoa(e)
}
