package plugins

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/kubernetes/pkg/scheduler/framework"

	"github.com/g-uva/makespan-scheduler/pkg/kube"
)

func testNode(name, cpu string) *v1.Node {
	return &v1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: v1.NodeStatus{
			Allocatable: v1.ResourceList{v1.ResourceCPU: resource.MustParse(cpu)},
		},
	}
}

func testPod(name, length string) *v1.Pod {
	return &v1.Pod{ObjectMeta: metav1.ObjectMeta{
		Name:        name,
		Namespace:   "default",
		Annotations: map[string]string{kube.LengthAnnotation: length},
	}}
}

func pluginFor(nodes ...*v1.Node) *MakespanPlugin {
	byName := map[string]*v1.Node{}
	for _, n := range nodes {
		byName[n.Name] = n
	}
	return newWithLookup(func(name string) (*v1.Node, error) {
		if n, ok := byName[name]; ok {
			return n, nil
		}
		return nil, errors.Errorf("node %q not found", name)
	})
}

func TestFilterRejectsSubCoreNodes(t *testing.T) {
	pl := pluginFor()
	info := framework.NewNodeInfo()
	info.SetNode(testNode("tiny", "500m"))
	st := pl.Filter(context.Background(), framework.NewCycleState(), testPod("p", "1"), info)
	assert.Equal(t, framework.UnschedulableAndUnresolvable, st.Code())

	info = framework.NewNodeInfo()
	info.SetNode(testNode("ok", "2"))
	assert.True(t, pl.Filter(context.Background(), framework.NewCycleState(), testPod("p", "1"), info).IsSuccess())
}

func TestScoreFollowsCommittedLoad(t *testing.T) {
	ctx := context.Background()
	pl := pluginFor(testNode("vm0", "1"), testNode("vm1", "1"))
	state := framework.NewCycleState()

	s0, st := pl.Score(ctx, state, testPod("a", "900"), "vm0")
	require.True(t, st.IsSuccess())
	assert.Equal(t, int64(900000), s0)

	pl.PostBind(ctx, state, testPod("a", "900"), "vm0")

	s0, _ = pl.Score(ctx, state, testPod("b", "700"), "vm0")
	s1, _ := pl.Score(ctx, state, testPod("b", "700"), "vm1")
	assert.Equal(t, int64(1600000), s0)
	assert.Equal(t, int64(700000), s1)

	scores := framework.NodeScoreList{{Name: "vm0", Score: s0}, {Name: "vm1", Score: s1}}
	require.True(t, pl.ScoreExtensions().NormalizeScore(ctx, state, testPod("b", "700"), scores).IsSuccess())
	assert.Equal(t, framework.MinNodeScore, scores[0].Score)
	assert.Equal(t, framework.MaxNodeScore, scores[1].Score)

	loads := pl.Loads()
	require.Len(t, loads, 2)
	assert.InDelta(t, 0.9, loads[0].Committed, 1e-12)
	assert.Zero(t, loads[1].Committed)
}

func TestNormalizeScoreAllEqual(t *testing.T) {
	scores := framework.NodeScoreList{{Name: "a", Score: 5}, {Name: "b", Score: 5}}
	require.Nil(t, pluginFor().NormalizeScore(context.Background(), nil, nil, scores))
	assert.Equal(t, framework.MaxNodeScore, scores[0].Score)
	assert.Equal(t, framework.MaxNodeScore, scores[1].Score)
}

func TestScoreErrors(t *testing.T) {
	pl := pluginFor(testNode("vm0", "1"))
	_, st := pl.Score(context.Background(), framework.NewCycleState(), testPod("a", "1"), "missing")
	assert.False(t, st.IsSuccess())

	_, st = pl.Score(context.Background(), framework.NewCycleState(), testPod("a", "-5"), "vm0")
	assert.False(t, st.IsSuccess())

	pl.PostBind(context.Background(), framework.NewCycleState(), testPod("a", "1"), "missing")
	assert.Empty(t, pl.Loads())
}

func TestScoreSaturatesOnHugeWorkloads(t *testing.T) {
	slow := testNode("slow", "1")
	slow.Annotations = map[string]string{kube.CoreMIPSAnnotation: "1e-300"}
	pl := pluginFor(slow)
	s, st := pl.Score(context.Background(), framework.NewCycleState(), testPod("huge", "9000"), "slow")
	require.True(t, st.IsSuccess())
	assert.Equal(t, int64(math.MaxInt64), s)

	assert.Equal(t, int64(1500000), toMicros(1.5))
	assert.Equal(t, int64(math.MaxInt64), toMicros(math.MaxFloat64))
}
