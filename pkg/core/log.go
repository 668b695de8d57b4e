package core

import "time"

// Assignment binds one job to one resource. Immutable once produced.
type Assignment struct {
	JobID      string
	ResourceID string
}

// Decision is the CentralUnit's log entry for one assignment.
type Decision struct {
	Round      string
	Strategy   string
	JobID      string
	ResourceID string
	Workload   float64
	Completion float64 // projected completion time on the resource after commit
	Timestamp  time.Time
}
