// Package benchmark runs several strategies over the same batch and exports
// the per-job decisions for comparison.
package benchmark

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

// Record holds one benchmark decision.
type Record struct {
	Timestamp  string
	Round      string
	Strategy   string
	JobID      string
	ResourceID string
	Workload   float64
	Completion float64
}

// Summary is the outcome of one strategy on the batch.
type Summary struct {
	Strategy string
	Jobs     int
	Makespan float64
}

// Adapter runs every strategy through its own CentralUnit.
type Adapter struct {
	Strategies []core.Strategy
	Clock      clock.PassiveClock

	Results   []Record
	Summaries []Summary
}

func NewAdapter(strategies ...core.Strategy) *Adapter {
	return &Adapter{Strategies: strategies, Clock: clock.RealClock{}}
}

// Run schedules the batch once per strategy. The first failing strategy stops
// the run; results gathered so far are kept.
func (ba *Adapter) Run(jobs []core.JobDescriptor, resources []core.ResourceDescriptor) error {
	for _, s := range ba.Strategies {
		klog.V(1).InfoS("Running benchmark", "strategy", s.Name(), "jobs", len(jobs), "resources", len(resources))
		cu := core.NewCentralUnit(s)
		cu.SetResources(resources...)
		cu.SubmitJobs(jobs...)
		plan, err := cu.Dispatch()
		if err != nil {
			return errors.WithMessagef(err, "strategy %s", s.Name())
		}
		for _, d := range cu.Decisions() {
			ba.Results = append(ba.Results, Record{
				Timestamp:  d.Timestamp.Format(time.RFC3339),
				Round:      d.Round,
				Strategy:   d.Strategy,
				JobID:      d.JobID,
				ResourceID: d.ResourceID,
				Workload:   d.Workload,
				Completion: d.Completion,
			})
		}
		ba.Summaries = append(ba.Summaries, Summary{
			Strategy: plan.Strategy,
			Jobs:     len(plan.Assignments),
			Makespan: plan.Makespan(),
		})
	}
	return nil
}

// ExportToCSV writes the records under dir and returns the file path.
func (ba *Adapter) ExportToCSV(dir string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "create results directory")
	}
	path := filepath.Join(dir, ba.filename())
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create results file")
	}
	defer f.Close()

	if err := ba.WriteCSV(f); err != nil {
		return "", err
	}
	klog.InfoS("Exported benchmark", "path", path, "rows", len(ba.Results))
	return path, nil
}

func (ba *Adapter) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"Timestamp", "Round", "Strategy", "JobID", "Resource", "Workload", "Completion"})
	for _, r := range ba.Results {
		cw.Write([]string{
			r.Timestamp,
			r.Round,
			r.Strategy,
			r.JobID,
			r.ResourceID,
			strconv.FormatFloat(r.Workload, 'f', -1, 64),
			strconv.FormatFloat(r.Completion, 'f', 6, 64),
		})
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "write benchmark csv")
}

// WriteSummary prints one line per strategy.
func (ba *Adapter) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "%-14s %-6s %s\n", "Strategy", "Jobs", "Makespan")
	for _, s := range ba.Summaries {
		fmt.Fprintf(w, "%-14s %-6d %.6f\n", s.Strategy, s.Jobs, s.Makespan)
	}
}

func (ba *Adapter) filename() string {
	c := ba.Clock
	if c == nil {
		c = clock.RealClock{}
	}
	id := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%s_benchmark.csv", id, c.Now().Format("20060102-150405"))
}
