package benchmark

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

func batch() ([]core.JobDescriptor, []core.ResourceDescriptor) {
	jobs := core.Workloads([]core.Workload{
		{ID: "a", MI: 100}, {ID: "b", MI: 100}, {ID: "c", MI: 100},
		{ID: "d", MI: 900}, {ID: "e", MI: 100}, {ID: "f", MI: 100},
	})
	nodes := core.Nodes([]core.Node{{ID: "vm0", PEs: 1, MIPS: 1000}, {ID: "vm1", PEs: 1, MIPS: 1000}})
	return jobs, nodes
}

func TestRunComparesStrategies(t *testing.T) {
	ba := NewAdapter(core.NewScheduler(), core.NewRoundRobin())
	require.NoError(t, ba.Run(batch()))

	require.Len(t, ba.Summaries, 2)
	assert.Equal(t, core.LPTName, ba.Summaries[0].Strategy)
	assert.Equal(t, core.RoundRobinName, ba.Summaries[1].Strategy)
	assert.InDelta(t, 0.9, ba.Summaries[0].Makespan, 1e-12)
	assert.InDelta(t, 1.1, ba.Summaries[1].Makespan, 1e-12)
	assert.Len(t, ba.Results, 12)

	var buf bytes.Buffer
	ba.WriteSummary(&buf)
	assert.Contains(t, buf.String(), core.RoundRobinName)
}

func TestRunStopsOnFailure(t *testing.T) {
	ba := NewAdapter(core.NewScheduler())
	jobs, _ := batch()
	err := ba.Run(jobs, nil)
	assert.True(t, errors.Is(err, core.ErrNoResourcesAvailable))
	assert.Empty(t, ba.Summaries)
}

func TestExportToCSV(t *testing.T) {
	ba := NewAdapter(core.NewScheduler())
	ba.Clock = testingclock.NewFakePassiveClock(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC))
	require.NoError(t, ba.Run(batch()))

	dir := filepath.Join(t.TempDir(), "results")
	path, err := ba.ExportToCSV(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_20240301-123000_benchmark.csv"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Strategy", rows[0][2])
	assert.Equal(t, []string{"d", "vm0", "900", "0.900000"}, rows[1][3:])
}
