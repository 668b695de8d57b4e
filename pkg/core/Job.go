package core

import (
	"math"

	"github.com/pkg/errors"
)

// Job is the normalised cost record of a JobDescriptor.
type Job struct {
	ID       string
	Workload float64
}

// NormalizeJob validates a descriptor and strips it down to its workload.
func NormalizeJob(raw JobDescriptor) (Job, error) {
	if raw == nil {
		return Job{}, errors.Wrap(ErrInvalidJob, "nil descriptor")
	}
	id := raw.JobID()
	if id == "" {
		return Job{}, errors.Wrap(ErrInvalidJob, "empty id")
	}
	w := raw.Length()
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return Job{}, errors.Wrapf(ErrInvalidJob, "job %q: workload %v is not finite", id, w)
	}
	if w < 0 {
		return Job{}, errors.Wrapf(ErrInvalidJob, "job %q: negative workload %v", id, w)
	}
	return Job{ID: id, Workload: w}, nil
}

// NormalizeJobs normalises the whole batch, failing on the first bad entry.
// Ids must be unique within a batch.
func NormalizeJobs(raw []JobDescriptor) ([]Job, error) {
	jobs := make([]Job, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, r := range raw {
		j, err := NormalizeJob(r)
		if err != nil {
			return nil, errors.WithMessagef(err, "jobs[%d]", i)
		}
		if _, dup := seen[j.ID]; dup {
			return nil, errors.Wrapf(ErrInvalidJob, "jobs[%d]: duplicate id %q", i, j.ID)
		}
		seen[j.ID] = struct{}{}
		jobs = append(jobs, j)
	}
	return jobs, nil
}
