package generator

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-uva/makespan-scheduler/pkg/core"
	"github.com/g-uva/makespan-scheduler/pkg/loader"
)

func TestRandomJobsInRange(t *testing.T) {
	jobs := RandomJobs(rand.New(rand.NewSource(3)), 200, 10000)
	require.Len(t, jobs, 200)
	for _, j := range jobs {
		assert.GreaterOrEqual(t, j.MI, 0.0)
		assert.Less(t, j.MI, 10000.0)
	}
	assert.Equal(t, "job-0", jobs[0].ID)
}

func TestRandomJobsDeterministicPerSeed(t *testing.T) {
	a := RandomJobs(rand.New(rand.NewSource(42)), 20, 500)
	b := RandomJobs(rand.New(rand.NewSource(42)), 20, 500)
	assert.Equal(t, a, b)
}

func TestRandomResourcesAreValid(t *testing.T) {
	nodes := RandomResources(rand.New(rand.NewSource(1)), 30)
	_, err := core.NormalizeResources(core.Nodes(nodes))
	require.NoError(t, err)
}

func TestUniformResources(t *testing.T) {
	assert.Equal(t, []core.Node{{ID: "vm0", PEs: 1, MIPS: 1000}, {ID: "vm1", PEs: 1, MIPS: 1000}}, UniformResources(2, 1, 1000))
}

func TestGenerateRoundTripsThroughLoader(t *testing.T) {
	dir := t.TempDir()
	jp := filepath.Join(dir, "nested", "jobs.csv")
	rp := filepath.Join(dir, "nested", "resources.csv")
	require.NoError(t, GenerateJobs(jp, 25, 10000, 9))
	require.NoError(t, GenerateResources(rp, 4, 9))

	jobs, err := loader.LoadJobsFromCSV(jp)
	require.NoError(t, err)
	assert.Equal(t, RandomJobs(rand.New(rand.NewSource(9)), 25, 10000), jobs)

	nodes, err := loader.LoadResourcesFromCSV(rp)
	require.NoError(t, err)
	assert.Equal(t, RandomResources(rand.New(rand.NewSource(9)), 4), nodes)
}
