// Package kube turns Kubernetes objects into scheduler descriptors: a Node is
// a resource with one core per allocatable CPU, a Pod is a job.
package kube

import (
	"math"
	"strconv"

	v1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/klog/v2"

	"github.com/g-uva/makespan-scheduler/pkg/core"
)

const (
	// CoreMIPSAnnotation sets the per-core speed of a node.
	CoreMIPSAnnotation = "makespan.g-uva.io/core-mips"
	// LengthAnnotation sets the workload of a pod, as a quantity ("9000", "12k").
	LengthAnnotation = "makespan.g-uva.io/length"

	DefaultCoreMIPS = 1000.0
)

// NodeResource reads allocatable CPU (capacity when allocatable is unset) and
// the core speed annotation. Fractional CPUs are rounded down, so a node with
// less than one whole CPU comes out with zero cores and is rejected by
// normalisation.
func NodeResource(node *v1.Node) core.Node {
	q, ok := node.Status.Allocatable[v1.ResourceCPU]
	if !ok {
		q = node.Status.Capacity[v1.ResourceCPU]
	}
	mips := DefaultCoreMIPS
	if raw, ok := node.Annotations[CoreMIPSAnnotation]; ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			klog.V(2).InfoS("Ignoring bad core speed annotation", "node", node.Name, "value", raw)
		} else {
			mips = v
		}
	}
	return core.Node{
		ID:     node.Name,
		PEs:    int(q.MilliValue() / 1000),
		MIPS:   mips,
		Labels: node.Labels,
	}
}

// PodWorkload reads the length annotation, falling back to the pod's total
// CPU request in millicores. A pod already bound to a node keeps the binding.
func PodWorkload(pod *v1.Pod) core.Workload {
	length := math.NaN()
	if raw, ok := pod.Annotations[LengthAnnotation]; ok {
		if q, err := resource.ParseQuantity(raw); err == nil {
			length = q.AsApproximateFloat64()
		} else {
			klog.V(2).InfoS("Ignoring bad length annotation", "pod", klog.KObj(pod), "value", raw)
		}
	}
	if math.IsNaN(length) {
		length = float64(PodCPURequest(pod).MilliValue())
	}
	return core.Workload{
		ID:      PodKey(pod),
		MI:      length,
		BoundTo: pod.Spec.NodeName,
	}
}

// PodCPURequest sums the CPU requests of the pod's containers.
func PodCPURequest(pod *v1.Pod) *resource.Quantity {
	total := resource.NewMilliQuantity(0, resource.DecimalSI)
	for _, c := range pod.Spec.Containers {
		if q, ok := c.Resources.Requests[v1.ResourceCPU]; ok {
			total.Add(q)
		}
	}
	return total
}

// PodKey is namespace/name.
func PodKey(pod *v1.Pod) string {
	if pod.Namespace == "" {
		return pod.Name
	}
	return pod.Namespace + "/" + pod.Name
}

func NodeResources(nodes []v1.Node) []core.ResourceDescriptor {
	out := make([]core.ResourceDescriptor, 0, len(nodes))
	for i := range nodes {
		out = append(out, NodeResource(&nodes[i]))
	}
	return out
}

func PodJobs(pods []v1.Pod) []core.JobDescriptor {
	out := make([]core.JobDescriptor, 0, len(pods))
	for i := range pods {
		out = append(out, PodWorkload(&pods[i]))
	}
	return out
}
