package plugins

import (
	"context"
	"math"
	"sync"

	"github.com/pkg/errors"
	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/klog/v2"
	"k8s.io/kubernetes/pkg/scheduler/framework"

	"github.com/g-uva/makespan-scheduler/pkg/core"
	"github.com/g-uva/makespan-scheduler/pkg/kube"
)

// Name is the plugin name used in KubeSchedulerConfiguration.
const Name = "Makespan"

// MakespanPlugin scores nodes by the projected completion time of the pod on
// top of the work already bound there, the online form of the LPT placement.
// Pods arrive one at a time, so there is no longest-first ordering here.
type MakespanPlugin struct {
	lookup func(nodeName string) (*v1.Node, error)

	mu   sync.Mutex
	load *core.LoadTracker
}

var (
	_ framework.FilterPlugin    = &MakespanPlugin{}
	_ framework.ScorePlugin     = &MakespanPlugin{}
	_ framework.ScoreExtensions = &MakespanPlugin{}
	_ framework.PostBindPlugin  = &MakespanPlugin{}
)

// New is the framework.PluginFactory.
func New(_ runtime.Object, h framework.Handle) (framework.Plugin, error) {
	lister := h.SnapshotSharedLister().NodeInfos()
	return newWithLookup(func(name string) (*v1.Node, error) {
		info, err := lister.Get(name)
		if err != nil {
			return nil, err
		}
		if info.Node() == nil {
			return nil, errors.Errorf("node %q not found", name)
		}
		return info.Node(), nil
	}), nil
}

func newWithLookup(lookup func(string) (*v1.Node, error)) *MakespanPlugin {
	return &MakespanPlugin{lookup: lookup, load: core.NewLoadTracker(nil)}
}

func (pl *MakespanPlugin) Name() string { return Name }

// Filter drops nodes that cannot run anything: less than one whole CPU or a
// bad speed annotation.
func (pl *MakespanPlugin) Filter(_ context.Context, _ *framework.CycleState, _ *v1.Pod, nodeInfo *framework.NodeInfo) *framework.Status {
	node := nodeInfo.Node()
	if node == nil {
		return framework.NewStatus(framework.Error, "node not found")
	}
	if _, err := core.NormalizeResource(kube.NodeResource(node)); err != nil {
		return framework.NewStatus(framework.UnschedulableAndUnresolvable, err.Error())
	}
	return nil
}

// Score returns the projected completion time in microseconds. Lower is
// better; NormalizeScore flips it.
func (pl *MakespanPlugin) Score(_ context.Context, _ *framework.CycleState, pod *v1.Pod, nodeName string) (int64, *framework.Status) {
	res, job, err := pl.describe(pod, nodeName)
	if err != nil {
		return 0, framework.AsStatus(err)
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.load.Track(res)
	t, err := pl.load.ProjectedCompletionTime(res.ID, job.Workload)
	if err != nil {
		return 0, framework.AsStatus(err)
	}
	klog.V(2).InfoS("Scored node", "pod", klog.KObj(pod), "node", nodeName, "completion", t)
	return toMicros(t), nil
}

// toMicros converts seconds to microseconds, saturating at MaxInt64.
func toMicros(t float64) int64 {
	us := t * 1e6
	if us >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(us)
}

func (pl *MakespanPlugin) ScoreExtensions() framework.ScoreExtensions { return pl }

// NormalizeScore maps the earliest completion to MaxNodeScore and the latest
// to MinNodeScore.
func (pl *MakespanPlugin) NormalizeScore(_ context.Context, _ *framework.CycleState, _ *v1.Pod, scores framework.NodeScoreList) *framework.Status {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := scores[0].Score, scores[0].Score
	for _, s := range scores {
		if s.Score < lo {
			lo = s.Score
		}
		if s.Score > hi {
			hi = s.Score
		}
	}
	for i := range scores {
		if hi == lo {
			scores[i].Score = framework.MaxNodeScore
			continue
		}
		scores[i].Score = framework.MaxNodeScore - (scores[i].Score-lo)*(framework.MaxNodeScore-framework.MinNodeScore)/(hi-lo)
	}
	return nil
}

// PostBind commits the pod's workload to the node it was bound to.
func (pl *MakespanPlugin) PostBind(_ context.Context, _ *framework.CycleState, pod *v1.Pod, nodeName string) {
	res, job, err := pl.describe(pod, nodeName)
	if err != nil {
		klog.ErrorS(err, "Cannot account bound pod", "pod", klog.KObj(pod), "node", nodeName)
		return
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.load.Track(res)
	if err := pl.load.Commit(res.ID, job.Workload); err != nil {
		klog.ErrorS(err, "Cannot account bound pod", "pod", klog.KObj(pod), "node", nodeName)
		return
	}
	klog.V(1).InfoS("Committed pod", "pod", klog.KObj(pod), "node", nodeName,
		"committed", pl.load.CommittedTime(res.ID))
}

// Loads snapshots the committed time per node.
func (pl *MakespanPlugin) Loads() []core.ResourceLoad {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.load.Loads()
}

func (pl *MakespanPlugin) describe(pod *v1.Pod, nodeName string) (core.Resource, core.Job, error) {
	node, err := pl.lookup(nodeName)
	if err != nil {
		return core.Resource{}, core.Job{}, err
	}
	res, err := core.NormalizeResource(kube.NodeResource(node))
	if err != nil {
		return core.Resource{}, core.Job{}, err
	}
	job, err := core.NormalizeJob(kube.PodWorkload(pod))
	if err != nil {
		return core.Resource{}, core.Job{}, err
	}
	return res, job, nil
}
