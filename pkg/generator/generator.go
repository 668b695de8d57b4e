package generator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

// RandomJobs draws n jobs with integral lengths uniform in [0, maxLength).
func RandomJobs(r *rand.Rand, n int, maxLength float64) []core.Workload {
	limit := int(maxLength)
	if limit < 1 {
		limit = 1
	}
	jobs := make([]core.Workload, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, core.Workload{
			ID: fmt.Sprintf("job-%d", i),
			MI: float64(r.Intn(limit)),
		})
	}
	return jobs
}

// nodeClass is one machine shape the generator picks from.
type nodeClass struct {
	prefix string
	pes    int
	mips   float64
}

var classes = []nodeClass{
	{"small", 1, 1000},
	{"medium", 2, 1000},
	{"large", 4, 1500},
}

// RandomResources draws n resources from the small/medium/large classes.
func RandomResources(r *rand.Rand, n int) []core.Node {
	nodes := make([]core.Node, 0, n)
	for i := 0; i < n; i++ {
		c := classes[r.Intn(len(classes))]
		nodes = append(nodes, core.Node{ID: fmt.Sprintf("%s-%d", c.prefix, i), PEs: c.pes, MIPS: c.mips})
	}
	return nodes
}

// UniformResources returns n identical resources named vm0..vm<n-1>.
func UniformResources(n, pes int, mips float64) []core.Node {
	nodes := make([]core.Node, 0, n)
	for i := 0; i < n; i++ {
		nodes = append(nodes, core.Node{ID: fmt.Sprintf("vm%d", i), PEs: pes, MIPS: mips})
	}
	return nodes
}

// WriteJobsCSV writes {id,length,tag,vm}, readable by loader.ReadJobsCSV.
func WriteJobsCSV(out io.Writer, jobs []core.Workload) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "length", "tag", "vm"}); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, j := range jobs {
		if err := w.Write([]string{j.ID, strconv.FormatFloat(j.MI, 'f', -1, 64), j.Tag, j.BoundTo}); err != nil {
			return errors.Wrapf(err, "writing job %s", j.ID)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteResourcesCSV writes {id,pes,mips}, readable by loader.ReadResourcesCSV.
func WriteResourcesCSV(out io.Writer, nodes []core.Node) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"id", "pes", "mips"}); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, n := range nodes {
		if err := w.Write([]string{n.ID, strconv.Itoa(n.PEs), strconv.FormatFloat(n.MIPS, 'f', -1, 64)}); err != nil {
			return errors.Wrapf(err, "writing resource %s", n.ID)
		}
	}
	w.Flush()
	return w.Error()
}

// GenerateJobs writes n random jobs to path, creating parent directories.
func GenerateJobs(path string, n int, maxLength float64, seed int64) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteJobsCSV(w, RandomJobs(rand.New(rand.NewSource(seed)), n, maxLength))
	})
}

// GenerateResources writes n random resources to path.
func GenerateResources(path string, n int, seed int64) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteResourcesCSV(w, RandomResources(rand.New(rand.NewSource(seed)), n))
	})
}

func writeFile(path string, fill func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating dirs for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "os.Create(%s)", path)
	}
	if err := fill(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
